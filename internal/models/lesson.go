package models

import "time"

// Lesson is one recorded tutoring session. Rows are created by the ingestion
// gateway before quiz generation starts and are never touched by the pipeline
// afterwards.
type Lesson struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// LessonAssignment links a lesson to the student it was recorded for.
type LessonAssignment struct {
	ID        int64     `json:"id"`
	LessonID  int64     `json:"lesson_id"`
	StudentID int64     `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
