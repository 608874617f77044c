package video

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockClient is the in-memory provisioning client used in development
// and tests. It records every call so tests can assert on adapter
// interactions.
type MockClient struct {
	mu sync.Mutex

	CreatedCalls    []CallHandle
	ConnectedAgents []uuid.UUID
	EndedRooms      []string
	Sessions        []*MockSession

	// CreateErr/ConnectErr/EndErr force failures when set
	CreateErr  error
	ConnectErr error
	EndErr     error

	logger *zap.Logger
}

func newMockClient(logger *zap.Logger) *MockClient {
	return &MockClient{logger: logger}
}

// NewMockClient creates a recording client for tests
func NewMockClient() *MockClient {
	return newMockClient(zap.NewNop())
}

func (m *MockClient) CreateCall(ctx context.Context, meetingID, creatorID uuid.UUID, metadata map[string]string) (*CallHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	handle := CallHandle{
		RoomName: meetingID.String(),
		SID:      fmt.Sprintf("RM_mock_%s", meetingID),
	}
	m.CreatedCalls = append(m.CreatedCalls, handle)
	m.logger.Debug("mock call created", zap.String("meeting_id", meetingID.String()))
	return &handle, nil
}

func (m *MockClient) ConnectAIParticipant(ctx context.Context, call *CallHandle, agentID uuid.UUID, instructions string, cfg SessionConfig) (RealtimeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectErr != nil {
		return nil, m.ConnectErr
	}
	m.ConnectedAgents = append(m.ConnectedAgents, agentID)
	session := &MockSession{Config: cfg}
	m.Sessions = append(m.Sessions, session)
	return session, nil
}

func (m *MockClient) EndCall(ctx context.Context, roomName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EndErr != nil {
		return m.EndErr
	}
	m.EndedRooms = append(m.EndedRooms, roomName)
	return nil
}

// MockSession records session tuning updates
type MockSession struct {
	mu      sync.Mutex
	Config  SessionConfig
	Updates []SessionConfig
}

func (s *MockSession) UpdateSession(ctx context.Context, cfg SessionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, cfg)
	s.Config = cfg
	return nil
}
