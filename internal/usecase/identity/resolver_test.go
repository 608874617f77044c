package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meetingloop/backend/internal/domain/entities"
)

type fakeUserRepo struct {
	users []*entities.User
	calls int
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	panic("not used")
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.User, error) {
	f.calls++
	var out []*entities.User
	for _, u := range f.users {
		for _, id := range ids {
			if u.ID == id {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type fakeAgentRepo struct {
	agents []*entities.Agent
	calls  int
}

func (f *fakeAgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Agent, error) {
	panic("not used")
}

func (f *fakeAgentRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Agent, error) {
	f.calls++
	var out []*entities.Agent
	for _, a := range f.agents {
		for _, id := range ids {
			if a.ID == id {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func TestResolver_Resolve(t *testing.T) {
	userID := uuid.New()
	agentID := uuid.New()
	unknownID := uuid.New()

	userRepo := &fakeUserRepo{users: []*entities.User{{ID: userID, Name: "Ana"}}}
	agentRepo := &fakeAgentRepo{agents: []*entities.Agent{{ID: agentID, Name: "Notetaker"}}}
	resolver := NewResolver(userRepo, agentRepo, zap.NewNop())

	resolved, err := resolver.Resolve(context.Background(), []string{
		userID.String(),
		agentID.String(),
		userID.String(), // duplicate
		unknownID.String(),
		"not-a-uuid",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana", resolved[userID.String()].Name)
	assert.Equal(t, "Notetaker", resolved[agentID.String()].Name)
	_, ok := resolved[unknownID.String()]
	assert.False(t, ok)
	_, ok = resolved["not-a-uuid"]
	assert.False(t, ok)

	// one batched query per namespace, no matter how many speakers
	assert.Equal(t, 1, userRepo.calls)
	assert.Equal(t, 1, agentRepo.calls)
}

func TestResolver_NoParseableIDs(t *testing.T) {
	userRepo := &fakeUserRepo{}
	agentRepo := &fakeAgentRepo{}
	resolver := NewResolver(userRepo, agentRepo, zap.NewNop())

	resolved, err := resolver.Resolve(context.Background(), []string{"garbage", ""})
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Zero(t, userRepo.calls)
	assert.Zero(t, agentRepo.calls)
}
