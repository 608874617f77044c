package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/domain/repositories"
)

// dedupeTTL bounds how long a fast-path dedupe marker lives. The DB
// unique index on dedupe_key remains the authority after expiry.
const dedupeTTL = 24 * time.Hour

// Deduper is the optional fast-path duplicate filter in front of the
// run table's unique index.
type Deduper interface {
	// AcquireOnce returns true the first time key is seen within ttl
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees a key claimed by AcquireOnce so the event can be
	// replayed after a failed insert.
	Release(ctx context.Context, key string) error
}

// Enqueuer inserts pending pipeline runs for finished transcripts
type Enqueuer struct {
	runRepo    repositories.WorkflowRunRepository
	deduper    Deduper
	maxRetries int
	logger     *zap.Logger
}

// NewEnqueuer creates a run enqueuer. deduper may be nil, in which
// case only the database unique index guards against duplicates.
func NewEnqueuer(runRepo repositories.WorkflowRunRepository, deduper Deduper, maxRetries int, logger *zap.Logger) *Enqueuer {
	return &Enqueuer{
		runRepo:    runRepo,
		deduper:    deduper,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// DedupeKey derives the logical run key from the pair that identifies
// a pipeline execution.
func DedupeKey(meetingID uuid.UUID, transcriptURL string) string {
	sum := sha256.Sum256([]byte(meetingID.String() + "|" + transcriptURL))
	return hex.EncodeToString(sum[:])
}

// Enqueue creates a pending run for (meetingID, transcriptURL).
// Duplicate deliveries of the same transcription event collapse to a
// single run; a duplicate returns the zero value with no error.
func (e *Enqueuer) Enqueue(ctx context.Context, meetingID uuid.UUID, transcriptURL string) (*entities.WorkflowRun, error) {
	key := DedupeKey(meetingID, transcriptURL)
	cacheKey := "workflow:dedupe:" + key

	claimed := false
	if e.deduper != nil {
		acquired, err := e.deduper.AcquireOnce(ctx, cacheKey, dedupeTTL)
		if err != nil {
			// cache trouble must not drop the event, fall through to
			// the unique index
			e.logger.Warn("dedupe cache unavailable", zap.Error(err))
		} else if !acquired {
			e.logger.Info("duplicate transcription event ignored",
				zap.String("meeting_id", meetingID.String()))
			return nil, nil
		} else {
			claimed = true
		}
	}

	run := entities.NewWorkflowRun(meetingID, transcriptURL, key, e.maxRetries)
	if err := e.runRepo.Create(ctx, run); err != nil {
		if errors.Is(err, entities.ErrRunAlreadyQueued) {
			e.logger.Info("run already queued",
				zap.String("meeting_id", meetingID.String()))
			return nil, nil
		}
		// the marker must not outlive a failed insert or the
		// provider's redelivery would be swallowed with no run
		if claimed {
			if relErr := e.deduper.Release(ctx, cacheKey); relErr != nil {
				e.logger.Warn("releasing dedupe key", zap.Error(relErr))
			}
		}
		return nil, fmt.Errorf("creating workflow run: %w", err)
	}

	e.logger.Info("workflow run enqueued",
		zap.String("run_id", run.ID.String()),
		zap.String("event", run.EventName),
		zap.String("meeting_id", meetingID.String()))
	return run, nil
}
