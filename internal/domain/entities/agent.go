package entities

import (
	"time"

	"github.com/google/uuid"
)

// Agent is a configured AI participant: a name plus natural-language
// behavioral instructions. Immutable for the duration of a call and a
// pipeline run.
type Agent struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Instructions string    `json:"instructions" gorm:"type:text;not null"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Agent
func (Agent) TableName() string {
	return "agents"
}
