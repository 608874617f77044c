package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingStatus represents the current lifecycle state of a meeting
type MeetingStatus string

const (
	MeetingStatusUpcoming   MeetingStatus = "upcoming"
	MeetingStatusActive     MeetingStatus = "active"
	MeetingStatusProcessing MeetingStatus = "processing"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusCancelled  MeetingStatus = "cancelled"
)

// Meeting represents a scheduled or in-progress video session with an
// attached AI agent. Status transitions are driven exclusively by
// conditional updates (see repository): upcoming → active → processing
// → completed, with upcoming → cancelled owned by an external user
// action. completed and cancelled are terminal.
type Meeting struct {
	ID      uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name    string        `json:"name" gorm:"type:varchar(255);not null"`
	AgentID uuid.UUID     `json:"agent_id" gorm:"type:uuid;not null;index"`
	UserID  uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	Status  MeetingStatus `json:"status" gorm:"type:varchar(20);not null;default:'upcoming';index"`

	// StartedAt is set exactly once, on the transition into active;
	// EndedAt exactly once, on the transition out of active.
	StartedAt *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	EndedAt   *time.Time `json:"ended_at,omitempty" gorm:"type:timestamp"`

	// Set by webhook events and the pipeline; overwritable by a later
	// run so re-delivered events stay idempotent.
	TranscriptURL *string `json:"transcript_url,omitempty" gorm:"type:text"`
	RecordingURL  *string `json:"recording_url,omitempty" gorm:"type:text"`
	Summary       *string `json:"summary,omitempty" gorm:"type:text"`

	Agent *Agent `json:"agent,omitempty" gorm:"foreignKey:AgentID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// IsTerminal checks if the meeting can no longer transition
func (m *Meeting) IsTerminal() bool {
	return m.Status == MeetingStatusCompleted || m.Status == MeetingStatusCancelled
}

// CanStart checks whether a session_started event may activate the meeting
func (m *Meeting) CanStart() bool {
	switch m.Status {
	case MeetingStatusCompleted, MeetingStatusActive, MeetingStatusCancelled, MeetingStatusProcessing:
		return false
	}
	return true
}

