package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/domain/repositories"
	"github.com/meetingloop/backend/pkg/jobcontext"
)

// EngineConfig tunes the worker pool
type EngineConfig struct {
	WorkerCount      int
	PollInterval     time.Duration
	RetryBackoffBase time.Duration
	StuckRunTimeout  time.Duration
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = 5 * time.Second
	}
	if c.StuckRunTimeout <= 0 {
		c.StuckRunTimeout = 10 * time.Minute
	}
	return c
}

// Engine drives durable pipeline runs: workers poll the run table,
// claim pending runs, and execute the pipeline with per-step
// memoization so a retried run never redoes completed work.
type Engine struct {
	runRepo  repositories.WorkflowRunRepository
	stepRepo repositories.WorkflowStepRepository
	pipeline *Pipeline
	cfg      EngineConfig
	logger   *zap.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewEngine creates a pipeline engine
func NewEngine(
	runRepo repositories.WorkflowRunRepository,
	stepRepo repositories.WorkflowStepRepository,
	pipeline *Pipeline,
	cfg EngineConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		runRepo:  runRepo,
		stepRepo: stepRepo,
		pipeline: pipeline,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// StartWorkerPool launches the workers and the stuck-run sweeper
func (e *Engine) StartWorkerPool() {
	for i := 0; i < e.cfg.WorkerCount; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}

	e.wg.Add(1)
	go e.sweepStuckRuns()

	e.logger.Info("workflow engine started",
		zap.Int("workers", e.cfg.WorkerCount),
		zap.Duration("poll_interval", e.cfg.PollInterval))
}

// StopWorkerPool signals all workers to stop and waits for in-flight
// runs to finish their current attempt.
func (e *Engine) StopWorkerPool() {
	close(e.stopChan)
	e.wg.Wait()
	e.logger.Info("workflow engine stopped")
}

func (e *Engine) worker(workerID int) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.drainQueue(workerID)
		}
	}
}

// drainQueue claims and executes runs until the queue is empty, so a
// burst of events does not wait a poll tick per run.
func (e *Engine) drainQueue(workerID int) {
	for {
		select {
		case <-e.stopChan:
			return
		default:
		}

		run, err := e.runRepo.ClaimNextPending(context.Background())
		if err != nil {
			e.logger.Error("claiming pending run", zap.Int("worker_id", workerID), zap.Error(err))
			return
		}
		if run == nil {
			return
		}

		e.executeRun(workerID, run)
	}
}

func (e *Engine) executeRun(workerID int, run *entities.WorkflowRun) {
	ctx, cancel := jobcontext.RunBegin(context.Background(), run.ID, run.MeetingID, workerID, run.RetryCount)
	defer cancel()

	e.logger.Info("run started", zap.String("run", jobcontext.FormatRun(ctx)))

	err := e.pipeline.Execute(ctx, run, e.stepRunner(run))
	if err == nil {
		if markErr := e.runRepo.MarkCompleted(context.Background(), run.ID); markErr != nil {
			e.logger.Error("marking run completed", zap.String("run_id", run.ID.String()), zap.Error(markErr))
		}
		e.logger.Info("run completed", zap.String("run", jobcontext.FormatRun(ctx)))
		return
	}

	// finalization must not inherit the possibly-expired attempt ctx
	finalCtx := context.Background()

	if IsFatal(err) {
		e.logger.Error("run failed permanently",
			zap.String("run", jobcontext.FormatRun(ctx)),
			zap.Error(err))
		if markErr := e.runRepo.MarkFailed(finalCtx, run.ID, err.Error()); markErr != nil {
			e.logger.Error("marking run failed", zap.String("run_id", run.ID.String()), zap.Error(markErr))
		}
		return
	}

	if run.RetryCount+1 >= run.MaxRetries {
		e.logger.Error("run exhausted retries",
			zap.String("run", jobcontext.FormatRun(ctx)),
			zap.Int("max_retries", run.MaxRetries),
			zap.Error(err))
		if markErr := e.runRepo.MarkFailed(finalCtx, run.ID, err.Error()); markErr != nil {
			e.logger.Error("marking run failed", zap.String("run_id", run.ID.String()), zap.Error(markErr))
		}
		return
	}

	delay := jobcontext.CalculateBackoff(run.RetryCount, e.cfg.RetryBackoffBase)
	nextRunAt := time.Now().Add(delay)
	e.logger.Warn("run rescheduled",
		zap.String("run", jobcontext.FormatRun(ctx)),
		zap.Duration("delay", delay),
		zap.Error(err))
	if schedErr := e.runRepo.Reschedule(finalCtx, run.ID, nextRunAt, err.Error()); schedErr != nil {
		e.logger.Error("rescheduling run", zap.String("run_id", run.ID.String()), zap.Error(schedErr))
	}
}

// stepRunner returns the memoizing StepFunc bound to one run. A
// completed step row short-circuits to its cached output; otherwise
// the step executes and its result is persisted before returning.
func (e *Engine) stepRunner(run *entities.WorkflowRun) StepFunc {
	return func(ctx context.Context, name string, seq int, input string, fn func(context.Context) (interface{}, error)) (json.RawMessage, error) {
		inputHash := hashInput(input)

		existing, err := e.stepRepo.FindByRunAndName(ctx, run.ID, name)
		if err != nil && !errors.Is(err, entities.ErrStepNotFound) {
			return nil, fmt.Errorf("loading step %s: %w", name, err)
		}
		if existing != nil && existing.Status == entities.WorkflowStepStatusCompleted {
			e.logger.Debug("step memoized",
				zap.String("run_id", run.ID.String()),
				zap.String("step", name))
			return json.RawMessage(existing.Output), nil
		}

		attempts := 1
		if existing != nil {
			attempts = existing.Attempts + 1
		}

		out, err := fn(ctx)
		if err != nil {
			e.recordStep(run, name, seq, inputHash, nil, entities.WorkflowStepStatusFailed, attempts)
			return nil, fmt.Errorf("step %s: %w", name, err)
		}

		raw, err := json.Marshal(out)
		if err != nil {
			return nil, Fatalf("encoding step %s output: %v", name, err)
		}

		now := time.Now()
		step := &entities.WorkflowStep{
			RunID:       run.ID,
			Name:        name,
			Seq:         seq,
			InputHash:   inputHash,
			Output:      datatypes.JSON(raw),
			Status:      entities.WorkflowStepStatusCompleted,
			Attempts:    attempts,
			CompletedAt: &now,
		}
		if err := e.stepRepo.Save(ctx, step); err != nil {
			// the work happened but is not memoized; a retry redoes it
			return nil, fmt.Errorf("persisting step %s: %w", name, err)
		}

		return raw, nil
	}
}

// recordStep persists a failed attempt for observability. Best effort.
func (e *Engine) recordStep(run *entities.WorkflowRun, name string, seq int, inputHash string, output json.RawMessage, status entities.WorkflowStepStatus, attempts int) {
	step := &entities.WorkflowStep{
		RunID:     run.ID,
		Name:      name,
		Seq:       seq,
		InputHash: inputHash,
		Output:    datatypes.JSON(output),
		Status:    status,
		Attempts:  attempts,
	}
	if err := e.stepRepo.Save(context.Background(), step); err != nil {
		e.logger.Warn("recording step attempt",
			zap.String("run_id", run.ID.String()),
			zap.String("step", name),
			zap.Error(err))
	}
}

func (e *Engine) sweepStuckRuns() {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-e.cfg.StuckRunTimeout)
			reset, err := e.runRepo.ResetStuckRuns(context.Background(), cutoff)
			if err != nil {
				e.logger.Error("resetting stuck runs", zap.Error(err))
				continue
			}
			if reset > 0 {
				e.logger.Warn("stuck runs reset to pending", zap.Int64("count", reset))
			}
		}
	}
}

func hashInput(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
