package worker

import (
	"context"

	"zrozumto/internal/quiz"
)

// stage names the pipeline step a run failed in. Failure is terminal for the
// run only; nothing is retried and nothing reaches the original caller, who
// was already answered when the job was enqueued.
type stage string

const (
	stageGenerating stage = "generating"
	stageDecoding   stage = "decoding"
	stagePersisting stage = "persisting"
)

// process executes one run: generate, decode, persist, then cleanup. The
// cleanup pass runs on every exit path, including panics out of the
// collaborators, so staged files never outlive their run.
func (p *Pool) process(job Job) {
	ctx := context.Background()
	log := p.log.With("lesson_id", job.LessonID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline run panicked", "panic", r)
		}
		p.cleanup(job.StagedPaths)
	}()

	log.Info("pipeline run started", "files", len(job.StagedPaths))

	raw, err := p.gen.Generate(ctx, job.StagedPaths)
	if err != nil {
		log.Error("pipeline run failed", "stage", stageGenerating, "error", err)
		return
	}

	questions, err := quiz.Decode(raw)
	if err != nil {
		log.Error("pipeline run failed", "stage", stageDecoding, "error", err)
		return
	}

	quizID, err := p.saver.SaveQuiz(ctx, job.LessonID, questions)
	if err != nil {
		log.Error("pipeline run failed", "stage", stagePersisting, "error", err)
		return
	}

	log.Info("pipeline run done", "quiz_id", quizID, "questions", len(questions))
}

// cleanup removes every staged path. Removal failures are logged and never
// escalate; an already-deleted path is not a failure at all.
func (p *Pool) cleanup(paths []string) {
	for _, path := range paths {
		if err := p.staging.Remove(path); err != nil {
			p.log.Warn("staged file cleanup failed", "path", path, "error", err)
		}
	}
}
