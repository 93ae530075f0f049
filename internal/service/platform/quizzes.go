package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zrozumto/internal/models"
)

// SaveQuiz stores a validated question set for a lesson and returns the quiz
// id. Re-running ingestion for the same lesson inserts another row.
func (s *Service) SaveQuiz(ctx context.Context, lessonID int64, questions []models.Question) (int64, error) {
	if lessonID <= 0 {
		return 0, errors.New("lesson id is required")
	}
	if len(questions) == 0 {
		return 0, errors.New("questions are required")
	}
	payload, err := json.Marshal(questions)
	if err != nil {
		return 0, fmt.Errorf("encode questions: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quizzes (lesson_id, questions_json, created_at) VALUES (?, ?, ?)`,
		lessonID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("save quiz: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("quiz id: %w", err)
	}
	return id, nil
}

// ListQuizzesForLesson returns the quizzes generated for a lesson.
func (s *Service) ListQuizzesForLesson(ctx context.Context, lessonID int64) ([]models.Quiz, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lesson_id, questions_json, created_at FROM quizzes WHERE lesson_id = ? ORDER BY created_at ASC`,
		lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []models.Quiz
	for rows.Next() {
		var q models.Quiz
		var raw string
		if err := rows.Scan(&q.ID, &q.LessonID, &raw, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &q.Questions); err != nil {
			return nil, fmt.Errorf("decode quiz %d: %w", q.ID, err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}
