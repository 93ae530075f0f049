// Package platform is the persistence layer for users, lessons, assignments,
// and quizzes. It is the single collaborator the ingestion gateway and the
// pipeline talk to for durable state.
package platform

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"zrozumto/internal/models"
)

// ErrStudentNotFound is returned when an identifier resolves to no account.
var ErrStudentNotFound = errors.New("student not found")

// Service handles account lifecycle and lesson/quiz persistence.
type Service struct {
	db          *sql.DB
	emailDomain string
}

const defaultEmailDomain = "zrozum-to.pl"

// NewService builds a platform service. Accounts are keyed by username; the
// email domain is used to derive each account's internal email address.
func NewService(db *sql.DB, emailDomain string) *Service {
	if emailDomain == "" {
		emailDomain = defaultEmailDomain
	}
	return &Service{db: db, emailDomain: emailDomain}
}

// ResolveStudent maps a username or email to the account id.
func (s *Service) ResolveStudent(ctx context.Context, identifier string) (int64, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, ErrStudentNotFound
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ? OR email = ?`,
		identifier, identifier,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrStudentNotFound
		}
		return 0, fmt.Errorf("resolve student: %w", err)
	}
	return id, nil
}

// CreateUser registers an account. The internal email is derived from the
// username so students log in with a short name, not an address.
func (s *Service) CreateUser(ctx context.Context, username, password, fullName string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	if role == "" {
		role = models.RoleStudent
	}
	if fullName == "" {
		fullName = username
	}

	email := fmt.Sprintf("%s@%s", username, s.emailDomain)
	hash := hashPassword(password)
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, full_name, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		username, email, fullName, role, hash, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &models.User{
		ID: id, Username: username, Email: email, FullName: fullName,
		Role: role, PasswordHash: hash, CreatedAt: now,
	}, nil
}

// Login validates credentials and returns the account.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, role, password_hash, created_at FROM users WHERE username = ?`,
		username,
	)
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("invalid credentials")
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if user.PasswordHash != hashPassword(password) {
		return nil, errors.New("invalid credentials")
	}
	return &user, nil
}

// GetUser fetches one account by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, role, password_hash, created_at FROM users WHERE id = ?`, id,
	)
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ListUsers returns every account, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, full_name, role, password_hash, created_at FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUserByUsername removes an account and cascaded data.
func (s *Service) DeleteUserByUsername(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func hashPassword(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
