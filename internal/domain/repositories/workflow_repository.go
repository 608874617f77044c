package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meetingloop/backend/internal/domain/entities"
)

// WorkflowRunRepository defines the persisted run queue
type WorkflowRunRepository interface {
	// Create inserts a pending run. Returns
	// entities.ErrRunAlreadyQueued when the dedupe key already exists.
	Create(ctx context.Context, run *entities.WorkflowRun) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.WorkflowRun, error)

	// ClaimNextPending atomically claims the oldest due pending run by
	// flipping it to running. Returns (nil, nil) when nothing is due.
	ClaimNextPending(ctx context.Context) (*entities.WorkflowRun, error)

	// MarkCompleted finishes a run successfully
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// MarkFailed terminally fails a run and records the error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error

	// Reschedule returns a running run to pending with an incremented
	// retry count and a future next_run_at.
	Reschedule(ctx context.Context, id uuid.UUID, nextRunAt time.Time, lastError string) error

	// ResetStuckRuns flips runs stuck in running since before cutoff
	// back to pending so a recovered worker can resume them.
	ResetStuckRuns(ctx context.Context, cutoff time.Time) (int64, error)
}

// WorkflowStepRepository defines the persisted step log that memoizes
// completed pipeline steps per run.
type WorkflowStepRepository interface {
	// FindByRunAndName returns the persisted step, or
	// entities.ErrStepNotFound when the step has not completed.
	FindByRunAndName(ctx context.Context, runID uuid.UUID, name string) (*entities.WorkflowStep, error)

	// Save upserts a step result keyed by (run_id, name)
	Save(ctx context.Context, step *entities.WorkflowStep) error
}
