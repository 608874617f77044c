package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/domain/repositories"
)

type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *gorm.DB) repositories.AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Agent, error) {
	var agent entities.Agent
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrAgentNotFound
		}
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Agent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var agents []*entities.Agent
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}
