package models

import "time"

// Question field names follow the wire format the model is instructed to emit:
// pytanie (prompt), odpowiedzi (choices), poprawna (correct choice).
type Question struct {
	Prompt  string   `json:"pytanie"`
	Choices []string `json:"odpowiedzi"`
	Correct string   `json:"poprawna"`
}

// Quiz is a validated set of generated questions for a lesson. Re-ingesting the
// same lesson inserts a second quiz row, there is no per-lesson uniqueness.
type Quiz struct {
	ID        int64      `json:"id"`
	LessonID  int64      `json:"lesson_id"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}
