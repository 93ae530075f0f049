// Package worker runs the content ingestion pipeline in the background. The
// gateway enqueues one job per ingested lesson; a bounded pool of workers
// drains the queue so the number of simultaneous model calls stays capped no
// matter how many ingestion requests arrive.
package worker

import (
	"context"
	"errors"
	"sync"

	"zrozumto/internal/logger"
	"zrozumto/internal/models"
)

// ErrQueueBusy is returned by Enqueue when the job queue is full.
var ErrQueueBusy = errors.New("ingestion queue full")

// Job is one scheduled pipeline run for a freshly created lesson.
type Job struct {
	LessonID    int64
	StagedPaths []string
}

// Generator produces raw quiz text from a set of local files.
type Generator interface {
	Generate(ctx context.Context, localPaths []string) (string, error)
}

// QuizSaver persists a validated question set for a lesson.
type QuizSaver interface {
	SaveQuiz(ctx context.Context, lessonID int64, questions []models.Question) (int64, error)
}

// StagingCleaner removes staged files after a run.
type StagingCleaner interface {
	Remove(path string) error
}

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	Workers   int
	QueueSize int
}

const (
	defaultWorkers   = 2
	defaultQueueSize = 16
)

// Pool owns the job queue and the workers draining it.
type Pool struct {
	jobs    chan Job
	quit    chan struct{}
	wg      sync.WaitGroup
	gen     Generator
	saver   QuizSaver
	staging StagingCleaner
	log     *logger.Logger

	stopOnce sync.Once
}

// NewPool starts the workers immediately.
func NewPool(cfg PoolConfig, gen Generator, saver QuizSaver, staging StagingCleaner, log *logger.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	p := &Pool{
		jobs:    make(chan Job, cfg.QueueSize),
		quit:    make(chan struct{}),
		gen:     gen,
		saver:   saver,
		staging: staging,
		log:     log,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Enqueue schedules a job without blocking the caller. A full queue is
// reported as ErrQueueBusy so the gateway can answer with a busy status
// instead of stalling the request.
func (p *Pool) Enqueue(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueBusy
	}
}

// Stop drains nothing: queued jobs not yet picked up are dropped. Callers
// should stop accepting ingestion requests first.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case job := <-p.jobs:
			p.process(job)
		}
	}
}
