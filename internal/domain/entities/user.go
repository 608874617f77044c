package entities

import (
	"time"

	"github.com/google/uuid"
)

// User represents a human account. Accounts are created by the auth
// collaborator; this service only reads them for speaker attribution
// and meeting ownership.
type User struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name  string    `json:"name" gorm:"type:varchar(255);not null"`
	Image *string   `json:"image,omitempty" gorm:"type:varchar(500)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
