package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/meetingloop/backend/internal/domain/entities"
)

// UserRepository defines user lookup operations
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByIDs performs one batched lookup over the given id set
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.User, error)
}
