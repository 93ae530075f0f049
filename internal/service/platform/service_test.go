package platform

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"zrozumto/internal/config"
	"zrozumto/internal/models"
	"zrozumto/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{
		"sqlite3": {DSN: filepath.Join(t.TempDir(), "platform.db")},
	}}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateUserDerivesEmailAndDefaults(t *testing.T) {
	svc := NewService(newTestDB(t), "")
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "anna", "haslo123", "", "")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if user.Email != "anna@zrozum-to.pl" {
		t.Fatalf("unexpected email: %q", user.Email)
	}
	if user.Role != models.RoleStudent {
		t.Fatalf("default role should be student, got %q", user.Role)
	}
	if user.FullName != "anna" {
		t.Fatalf("full name should default to username, got %q", user.FullName)
	}
	if user.PasswordHash == "haslo123" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
}

func TestCreateUserCustomDomainAndDuplicates(t *testing.T) {
	svc := NewService(newTestDB(t), "szkola.edu.pl")
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "bartek", "haslo456", "Bartek Kowalski", models.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if user.Email != "bartek@szkola.edu.pl" {
		t.Fatalf("unexpected email: %q", user.Email)
	}
	if _, err := svc.CreateUser(ctx, "bartek", "inne", "", ""); err == nil {
		t.Fatalf("duplicate username must fail")
	}
	if _, err := svc.CreateUser(ctx, "", "haslo", "", ""); err == nil {
		t.Fatalf("empty username must fail")
	}
	if _, err := svc.CreateUser(ctx, "celina", "", "", ""); err == nil {
		t.Fatalf("empty password must fail")
	}
}

func TestResolveStudent(t *testing.T) {
	svc := NewService(newTestDB(t), "")
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "anna", "haslo123", "", "")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	byUsername, err := svc.ResolveStudent(ctx, "anna")
	if err != nil || byUsername != user.ID {
		t.Fatalf("resolve by username: id=%d err=%v", byUsername, err)
	}
	byEmail, err := svc.ResolveStudent(ctx, "anna@zrozum-to.pl")
	if err != nil || byEmail != user.ID {
		t.Fatalf("resolve by email: id=%d err=%v", byEmail, err)
	}
	if _, err := svc.ResolveStudent(ctx, "nieznany"); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("unknown identifier: %v", err)
	}
	if _, err := svc.ResolveStudent(ctx, "  "); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("blank identifier: %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := NewService(newTestDB(t), "")
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "anna", "haslo123", "Anna Kowalska", ""); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	user, err := svc.Login(ctx, "anna", "haslo123")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.FullName != "Anna Kowalska" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, err := svc.Login(ctx, "anna", "zle-haslo"); err == nil {
		t.Fatalf("wrong password must fail")
	}
	if _, err := svc.Login(ctx, "nieznany", "haslo123"); err == nil {
		t.Fatalf("unknown user must fail")
	}
}

func TestLessonAssignmentFlow(t *testing.T) {
	svc := NewService(newTestDB(t), "")
	ctx := context.Background()

	anna, err := svc.CreateUser(ctx, "anna", "haslo123", "", "")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	bartek, err := svc.CreateUser(ctx, "bartek", "haslo456", "", "")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	lesson, err := svc.CreateLesson(ctx, "Pochodne", "Lekcja dodana automatycznie (webhook)")
	if err != nil {
		t.Fatalf("CreateLesson error: %v", err)
	}
	if err := svc.CreateAssignment(ctx, lesson.ID, anna.ID); err != nil {
		t.Fatalf("CreateAssignment error: %v", err)
	}

	lessons, err := svc.ListLessonsForStudent(ctx, anna.ID)
	if err != nil || len(lessons) != 1 || lessons[0].Title != "Pochodne" {
		t.Fatalf("assignee listing: %v %+v", err, lessons)
	}
	other, err := svc.ListLessonsForStudent(ctx, bartek.ID)
	if err != nil || len(other) != 0 {
		t.Fatalf("non-assignee listing: %v %+v", err, other)
	}

	if _, err := svc.GetLessonForStudent(ctx, anna.ID, lesson.ID); err != nil {
		t.Fatalf("assignee fetch: %v", err)
	}
	if _, err := svc.GetLessonForStudent(ctx, bartek.ID, lesson.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("non-assignee fetch: %v", err)
	}
	if _, err := svc.CreateLesson(ctx, "  ", ""); err == nil {
		t.Fatalf("blank title must fail")
	}
}

func TestSaveAndListQuizzes(t *testing.T) {
	svc := NewService(newTestDB(t), "")
	ctx := context.Background()

	lesson, err := svc.CreateLesson(ctx, "Pochodne", "")
	if err != nil {
		t.Fatalf("CreateLesson error: %v", err)
	}

	questions := []models.Question{
		{Prompt: "Co to jest pochodna?", Choices: []string{"A", "B", "C", "D"}, Correct: "A"},
		{Prompt: "Pochodna x^2?", Choices: []string{"2x", "x", "x^2", "2"}, Correct: "2x"},
		{Prompt: "Pochodna funkcji stalej?", Choices: []string{"0", "1", "x", "2x"}, Correct: "0"},
	}
	quizID, err := svc.SaveQuiz(ctx, lesson.ID, questions)
	if err != nil {
		t.Fatalf("SaveQuiz error: %v", err)
	}
	if quizID <= 0 {
		t.Fatalf("invalid quiz id %d", quizID)
	}

	quizzes, err := svc.ListQuizzesForLesson(ctx, lesson.ID)
	if err != nil {
		t.Fatalf("ListQuizzesForLesson error: %v", err)
	}
	if len(quizzes) != 1 || len(quizzes[0].Questions) != 3 {
		t.Fatalf("unexpected quizzes: %+v", quizzes)
	}
	if quizzes[0].Questions[1].Correct != "2x" {
		t.Fatalf("question round trip broken: %+v", quizzes[0].Questions[1])
	}

	// Re-ingestion adds a second quiz row for the same lesson.
	if _, err := svc.SaveQuiz(ctx, lesson.ID, questions); err != nil {
		t.Fatalf("second SaveQuiz error: %v", err)
	}
	quizzes, err = svc.ListQuizzesForLesson(ctx, lesson.ID)
	if err != nil || len(quizzes) != 2 {
		t.Fatalf("expected 2 quizzes: %v %+v", err, quizzes)
	}

	if _, err := svc.SaveQuiz(ctx, 0, questions); err == nil {
		t.Fatalf("missing lesson id must fail")
	}
	if _, err := svc.SaveQuiz(ctx, lesson.ID, nil); err == nil {
		t.Fatalf("empty question set must fail")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	svc := NewService(newTestDB(t), "")
	ctx := context.Background()

	anna, err := svc.CreateUser(ctx, "anna", "haslo123", "", "")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	lesson, err := svc.CreateLesson(ctx, "Pochodne", "")
	if err != nil {
		t.Fatalf("CreateLesson error: %v", err)
	}
	if err := svc.CreateAssignment(ctx, lesson.ID, anna.ID); err != nil {
		t.Fatalf("CreateAssignment error: %v", err)
	}

	if err := svc.DeleteUserByUsername(ctx, "anna"); err != nil {
		t.Fatalf("DeleteUserByUsername error: %v", err)
	}
	if _, err := svc.ResolveStudent(ctx, "anna"); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("deleted user should not resolve: %v", err)
	}

	var count int
	if err := svc.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lesson_assignments WHERE student_id = ?`, anna.ID).Scan(&count); err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if count != 0 {
		t.Fatalf("assignment rows should cascade on user delete")
	}

	if err := svc.DeleteUserByUsername(ctx, "anna"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("deleting missing user: %v", err)
	}
}
