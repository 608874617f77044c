package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/meetingloop/backend/internal/domain/entities"
)

// MeetingRepository defines meeting persistence operations.
//
// Every transition method is a conditional update ("set status=X where
// id=? AND status=expected") and reports whether a row was affected.
// Losing a race against a concurrent event yields (false, nil), which
// callers must treat as a no-op, not an error.
type MeetingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// TransitionToActive moves a startable meeting into active and
	// stamps started_at. Startable means status is none of completed,
	// active, cancelled, processing.
	TransitionToActive(ctx context.Context, id uuid.UUID) (bool, error)

	// TransitionToProcessing moves an active meeting into processing
	// and stamps ended_at. No-op unless current status is exactly active.
	TransitionToProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// SetTranscriptURL attaches the transcript blob URL regardless of
	// current status. Returns false when the meeting row is absent.
	SetTranscriptURL(ctx context.Context, id uuid.UUID, url string) (bool, error)

	// SetRecordingURL attaches the recording URL; soft update, absent
	// rows are a no-op.
	SetRecordingURL(ctx context.Context, id uuid.UUID, url string) (bool, error)

	// CompleteWithSummary stores the summary text and sets
	// status=completed in a single update keyed by meeting id.
	// Idempotent: repeating it with the same summary leaves the row
	// unchanged.
	CompleteWithSummary(ctx context.Context, id uuid.UUID, summary string) (bool, error)
}
