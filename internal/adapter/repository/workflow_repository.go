package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/domain/repositories"
)

type workflowRunRepository struct {
	db *gorm.DB
}

// NewWorkflowRunRepository creates a new workflow run repository
func NewWorkflowRunRepository(db *gorm.DB) repositories.WorkflowRunRepository {
	return &workflowRunRepository{db: db}
}

func (r *workflowRunRepository) Create(ctx context.Context, run *entities.WorkflowRun) error {
	err := r.db.WithContext(ctx).Create(run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return entities.ErrRunAlreadyQueued
		}
		return err
	}
	return nil
}

func (r *workflowRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.WorkflowRun, error) {
	var run entities.WorkflowRun
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ClaimNextPending selects the oldest due pending run with a row lock
// and flips it to running inside one transaction. SKIP LOCKED keeps
// concurrent workers from fighting over the same row.
func (r *workflowRunRepository) ClaimNextPending(ctx context.Context) (*entities.WorkflowRun, error) {
	var run entities.WorkflowRun
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_run_at <= ?", entities.WorkflowRunStatusPending, time.Now()).
			Order("next_run_at ASC").
			First(&run).Error
		if err != nil {
			return err
		}

		now := time.Now()
		run.Status = entities.WorkflowRunStatusRunning
		run.StartedAt = &now
		return tx.Model(&entities.WorkflowRun{}).
			Where("id = ?", run.ID).
			Updates(map[string]interface{}{
				"status":     entities.WorkflowRunStatusRunning,
				"started_at": now,
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *workflowRunRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.WorkflowRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       entities.WorkflowRunStatusCompleted,
			"completed_at": time.Now(),
			"last_error":   "",
		}).Error
}

func (r *workflowRunRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&entities.WorkflowRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     entities.WorkflowRunStatusFailed,
			"last_error": lastError,
		}).Error
}

func (r *workflowRunRepository) Reschedule(ctx context.Context, id uuid.UUID, nextRunAt time.Time, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&entities.WorkflowRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      entities.WorkflowRunStatusPending,
			"retry_count": gorm.Expr("retry_count + 1"),
			"next_run_at": nextRunAt,
			"last_error":  lastError,
			"started_at":  nil,
		}).Error
}

func (r *workflowRunRepository) ResetStuckRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.WorkflowRun{}).
		Where("status = ? AND started_at < ?", entities.WorkflowRunStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":      entities.WorkflowRunStatusPending,
			"next_run_at": time.Now(),
			"started_at":  nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

type workflowStepRepository struct {
	db *gorm.DB
}

// NewWorkflowStepRepository creates a new workflow step repository
func NewWorkflowStepRepository(db *gorm.DB) repositories.WorkflowStepRepository {
	return &workflowStepRepository{db: db}
}

func (r *workflowStepRepository) FindByRunAndName(ctx context.Context, runID uuid.UUID, name string) (*entities.WorkflowStep, error) {
	var step entities.WorkflowStep
	err := r.db.WithContext(ctx).
		Where("run_id = ? AND name = ?", runID, name).
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrStepNotFound
		}
		return nil, err
	}
	return &step, nil
}

func (r *workflowStepRepository) Save(ctx context.Context, step *entities.WorkflowStep) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "run_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"input_hash", "output", "status", "attempts", "completed_at", "updated_at",
			}),
		}).
		Create(step).Error
}
