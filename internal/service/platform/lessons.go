package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"zrozumto/internal/models"
)

// CreateLesson inserts a lesson row and returns it.
func (s *Service) CreateLesson(ctx context.Context, title, description string) (*models.Lesson, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (title, description, created_at) VALUES (?, ?, ?)`,
		title, description, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("lesson id: %w", err)
	}
	return &models.Lesson{ID: id, Title: title, Description: description, CreatedAt: now}, nil
}

// CreateAssignment links a lesson to the student it belongs to. Every lesson
// created through ingestion gets exactly one assignment row.
func (s *Service) CreateAssignment(ctx context.Context, lessonID, studentID int64) error {
	if lessonID <= 0 || studentID <= 0 {
		return errors.New("lesson and student ids are required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lesson_assignments (lesson_id, student_id, created_at) VALUES (?, ?, ?)`,
		lessonID, studentID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// ListLessonsForStudent returns lessons assigned to the student, newest first.
func (s *Service) ListLessonsForStudent(ctx context.Context, studentID int64) ([]models.Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.title, l.description, l.created_at
		 FROM lessons l
		 JOIN lesson_assignments a ON a.lesson_id = l.id
		 WHERE a.student_id = ?
		 ORDER BY l.created_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var l models.Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// GetLessonForStudent fetches one lesson if it is assigned to the student.
func (s *Service) GetLessonForStudent(ctx context.Context, studentID, lessonID int64) (*models.Lesson, error) {
	var l models.Lesson
	err := s.db.QueryRowContext(ctx,
		`SELECT l.id, l.title, l.description, l.created_at
		 FROM lessons l
		 JOIN lesson_assignments a ON a.lesson_id = l.id
		 WHERE l.id = ? AND a.student_id = ?`,
		lessonID, studentID,
	).Scan(&l.ID, &l.Title, &l.Description, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return &l, nil
}
