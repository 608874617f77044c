package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/meetingloop/backend/internal/domain/entities"
)

// AgentRepository defines agent lookup operations
type AgentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Agent, error)

	// FindByIDs performs one batched lookup over the given id set
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Agent, error)
}
