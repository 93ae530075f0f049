package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"zrozumto/internal/config"
	"zrozumto/internal/models"
	"zrozumto/internal/service/platform"
	"zrozumto/internal/storage"
)

func newTestService(t *testing.T, ttl time.Duration) (*Service, *sql.DB, int64) {
	t.Helper()
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{
		"sqlite3": {DSN: filepath.Join(t.TempDir(), "auth.db")},
	}}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	user, err := platform.NewService(db, "").CreateUser(context.Background(), "anna", "haslo123", "", models.RoleStudent)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewService(db, nil, ttl), db, user.ID
}

func TestIssueAndValidateToken(t *testing.T) {
	svc, _, userID := newTestService(t, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, userID)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}

	got, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if got != userID {
		t.Fatalf("expected user %d, got %d", userID, got)
	}
}

func TestValidateRejectsUnknownAndEmpty(t *testing.T) {
	svc, _, _ := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := svc.ValidateToken(ctx, ""); err == nil {
		t.Fatalf("empty token must be rejected")
	}
	if _, err := svc.ValidateToken(ctx, "deadbeef"); err == nil {
		t.Fatalf("unknown token must be rejected")
	}
}

func TestValidatePurgesExpiredToken(t *testing.T) {
	svc, db, userID := newTestService(t, time.Hour)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	if _, err := db.ExecContext(ctx,
		`INSERT INTO user_tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		"stale-token", userID, past.Add(-time.Hour), past,
	); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if _, err := svc.ValidateToken(ctx, "stale-token"); err == nil {
		t.Fatalf("expired token must be rejected")
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_tokens WHERE token = ?`, "stale-token").Scan(&count); err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired token row should be deleted")
	}
}

func TestRevokeToken(t *testing.T) {
	svc, _, userID := newTestService(t, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, userID)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if err := svc.RevokeToken(ctx, token); err != nil {
		t.Fatalf("RevokeToken error: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, token); err == nil {
		t.Fatalf("revoked token must be rejected")
	}
	// Revoking again is not an error.
	if err := svc.RevokeToken(ctx, token); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestRevokeUserTokens(t *testing.T) {
	svc, _, userID := newTestService(t, time.Hour)
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 3; i++ {
		token, err := svc.IssueToken(ctx, userID)
		if err != nil {
			t.Fatalf("IssueToken error: %v", err)
		}
		tokens = append(tokens, token)
	}
	if err := svc.RevokeUserTokens(ctx, userID); err != nil {
		t.Fatalf("RevokeUserTokens error: %v", err)
	}
	for _, token := range tokens {
		if _, err := svc.ValidateToken(ctx, token); err == nil {
			t.Fatalf("token %s should have been revoked", token)
		}
	}
}

func TestUserRole(t *testing.T) {
	svc, db, userID := newTestService(t, time.Hour)
	ctx := context.Background()

	role, err := svc.UserRole(ctx, userID)
	if err != nil {
		t.Fatalf("UserRole error: %v", err)
	}
	if role != "student" {
		t.Fatalf("expected student, got %q", role)
	}
	if _, err := db.ExecContext(ctx, `UPDATE users SET role = 'admin' WHERE id = ?`, userID); err != nil {
		t.Fatalf("update role: %v", err)
	}
	role, err = svc.UserRole(ctx, userID)
	if err != nil {
		t.Fatalf("UserRole error: %v", err)
	}
	if role != "admin" {
		t.Fatalf("expected admin, got %q", role)
	}
	if _, err := svc.UserRole(ctx, 9999); err == nil {
		t.Fatalf("unknown user must be an error")
	}
}
