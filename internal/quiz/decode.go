// Package quiz turns raw model output into a validated question set. The
// decoder is strict: a single malformed question rejects the whole batch,
// since a half-valid quiz must never reach a student.
package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"zrozumto/internal/models"
)

const (
	// QuestionCount is the number of questions a generated quiz must contain.
	QuestionCount = 3
	// ChoiceCount is the number of answer choices per question.
	ChoiceCount = 4
)

// FormatError reports why the model output could not be decoded. Index is the
// zero-based position of the offending question, or -1 when the batch as a
// whole is malformed.
type FormatError struct {
	Index  int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("quiz format: %s", e.Reason)
	}
	return fmt.Sprintf("quiz format: question %d: %s", e.Index, e.Reason)
}

// Decode strips code-fence wrapping from raw model output, parses it as a JSON
// array of questions, and validates every record.
func Decode(raw string) ([]models.Question, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, &FormatError{Index: -1, Reason: "empty response"}
	}

	var questions []models.Question
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, &FormatError{Index: -1, Reason: fmt.Sprintf("parse: %v", err)}
	}
	if len(questions) != QuestionCount {
		return nil, &FormatError{Index: -1, Reason: fmt.Sprintf("expected %d questions, got %d", QuestionCount, len(questions))}
	}
	for i, q := range questions {
		if err := validate(i, q); err != nil {
			return nil, err
		}
	}
	return questions, nil
}

func validate(i int, q models.Question) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return &FormatError{Index: i, Reason: "empty question text"}
	}
	if len(q.Choices) != ChoiceCount {
		return &FormatError{Index: i, Reason: fmt.Sprintf("expected %d choices, got %d", ChoiceCount, len(q.Choices))}
	}
	seen := make(map[string]struct{}, ChoiceCount)
	for _, c := range q.Choices {
		if strings.TrimSpace(c) == "" {
			return &FormatError{Index: i, Reason: "empty choice"}
		}
		if _, dup := seen[c]; dup {
			return &FormatError{Index: i, Reason: fmt.Sprintf("duplicate choice %q", c)}
		}
		seen[c] = struct{}{}
	}
	if _, ok := seen[q.Correct]; !ok {
		return &FormatError{Index: i, Reason: fmt.Sprintf("correct choice %q not in choices", q.Correct)}
	}
	return nil
}

// stripFences removes a leading ```/```json line and a trailing ``` marker.
// The model sometimes wraps its JSON this way even with a structured-output
// request; anything more exotic is left for the parser to reject.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if idx := strings.IndexByte(s, '\n'); idx >= 0 && strings.EqualFold(strings.TrimSpace(s[:idx]), "json") {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	if strings.HasSuffix(strings.TrimSpace(s), "```") {
		trimmed := strings.TrimSpace(s)
		s = trimmed[:len(trimmed)-3]
	}
	return strings.TrimSpace(s)
}
