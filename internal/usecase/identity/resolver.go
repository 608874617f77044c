// Package identity resolves transcript speaker ids to display
// identities across the two speaker namespaces, users and agents.
package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/domain/repositories"
)

// Resolver batches speaker lookups. Resolving N distinct ids costs at
// most two queries, one per namespace, regardless of N.
type Resolver struct {
	userRepo  repositories.UserRepository
	agentRepo repositories.AgentRepository
	logger    *zap.Logger
}

// NewResolver creates a new identity resolver
func NewResolver(userRepo repositories.UserRepository, agentRepo repositories.AgentRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		userRepo:  userRepo,
		agentRepo: agentRepo,
		logger:    logger,
	}
}

// Resolve maps each speaker id to its identity. Ids that are not
// well-formed UUIDs, or that match neither namespace, are absent from
// the result; callers substitute the unknown-speaker fallback. Users
// win when an id improbably exists in both namespaces.
func (r *Resolver) Resolve(ctx context.Context, speakerIDs []string) (map[string]entities.Speaker, error) {
	ids := make([]uuid.UUID, 0, len(speakerIDs))
	seen := make(map[uuid.UUID]bool, len(speakerIDs))
	for _, raw := range speakerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			r.logger.Debug("skipping non-uuid speaker id", zap.String("speaker_id", raw))
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	resolved := make(map[string]entities.Speaker, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	agents, err := r.agentRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, agent := range agents {
		resolved[agent.ID.String()] = entities.Speaker{Name: agent.Name}
	}

	users, err := r.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		resolved[user.ID.String()] = entities.Speaker{Name: user.Name, Image: user.Image}
	}

	return resolved, nil
}
