package entities

import (
	"time"

	"github.com/google/uuid"

	"gorm.io/datatypes"
)

// WorkflowRunStatus represents the status of a durable pipeline run
type WorkflowRunStatus string

const (
	WorkflowRunStatusPending   WorkflowRunStatus = "pending"   // Waiting for a worker to claim it
	WorkflowRunStatusRunning   WorkflowRunStatus = "running"   // Claimed by a worker
	WorkflowRunStatusCompleted WorkflowRunStatus = "completed" // All steps done, summary stored
	WorkflowRunStatusFailed    WorkflowRunStatus = "failed"    // Terminal failure (fatal or retries exhausted)
)

// WorkflowRun is one durable execution of the transcript pipeline,
// triggered by a transcription_ready event and keyed by
// (meeting, transcript URL). Once enqueued it runs to completion or
// terminal failure; there is no cancellation path.
type WorkflowRun struct {
	ID            uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	EventName     string            `json:"event_name" gorm:"type:varchar(100);not null;default:'meetings/processing'"`
	MeetingID     uuid.UUID         `json:"meeting_id" gorm:"type:uuid;not null;index"`
	TranscriptURL string            `json:"transcript_url" gorm:"type:text;not null"`
	DedupeKey     string            `json:"dedupe_key" gorm:"type:varchar(128);uniqueIndex;not null"`
	Status        WorkflowRunStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'pending'"`

	RetryCount int        `json:"retry_count" gorm:"type:integer;default:0"`
	MaxRetries int        `json:"max_retries" gorm:"type:integer;default:3"`
	NextRunAt  time.Time  `json:"next_run_at" gorm:"type:timestamp;index;default:now()"`
	LastError  *string    `json:"last_error,omitempty" gorm:"type:text"`
	StartedAt  *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for WorkflowRun
func (WorkflowRun) TableName() string {
	return "workflow_runs"
}

// NewWorkflowRun creates a pending run for a meeting's transcript
func NewWorkflowRun(meetingID uuid.UUID, transcriptURL, dedupeKey string, maxRetries int) *WorkflowRun {
	return &WorkflowRun{
		ID:            uuid.New(),
		EventName:     "meetings/processing",
		MeetingID:     meetingID,
		TranscriptURL: transcriptURL,
		DedupeKey:     dedupeKey,
		Status:        WorkflowRunStatusPending,
		MaxRetries:    maxRetries,
		NextRunAt:     time.Now(),
	}
}

// WorkflowStepStatus represents the status of a persisted step result
type WorkflowStepStatus string

const (
	WorkflowStepStatusCompleted WorkflowStepStatus = "completed"
	WorkflowStepStatusFailed    WorkflowStepStatus = "failed"
)

// WorkflowStep is the persisted result of one named pipeline step.
// A completed row memoizes the step: re-execution of the run returns
// the cached Output instead of redoing the work.
type WorkflowStep struct {
	ID        uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RunID     uuid.UUID          `json:"run_id" gorm:"type:uuid;not null;uniqueIndex:idx_run_step,priority:1"`
	Name      string             `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_run_step,priority:2"`
	Seq       int                `json:"seq" gorm:"type:integer;not null"`
	InputHash string             `json:"input_hash" gorm:"type:varchar(64);not null"`
	Output    datatypes.JSON     `json:"output" gorm:"type:jsonb"`
	Status    WorkflowStepStatus `json:"status" gorm:"type:varchar(20);not null"`
	Attempts  int                `json:"attempts" gorm:"type:integer;default:1"`

	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for WorkflowStep
func (WorkflowStep) TableName() string {
	return "workflow_steps"
}
