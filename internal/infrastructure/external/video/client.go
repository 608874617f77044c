// Package video is the call provisioning adapter. It owns creating
// calls at the provider, connecting the AI participant, and ending
// calls; meeting lifecycle events flow back in through the webhook
// gateway.
package video

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionConfig is the realtime session tuning forwarded to the AI
// participant when it joins a call.
type SessionConfig struct {
	TurnDetection      string `json:"turn_detection"`
	TranscriptionModel string `json:"transcription_model"`
	NoiseReduction     string `json:"noise_reduction"`
}

// DefaultSessionConfig returns the session tuning used for every
// meeting: semantic voice-activity turn detection, whisper
// transcription and near-field noise reduction.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TurnDetection:      "semantic_vad",
		TranscriptionModel: "whisper-1",
		NoiseReduction:     "near_field",
	}
}

// CallHandle identifies a provisioned call at the provider
type CallHandle struct {
	RoomName string
	SID      string
}

// RealtimeSession is a live AI participant session; UpdateSession
// pushes new tuning to an already-connected participant.
type RealtimeSession interface {
	UpdateSession(ctx context.Context, cfg SessionConfig) error
}

// Client wraps call provisioning operations
type Client interface {
	// CreateCall provisions a call room for a meeting. The meeting id
	// travels in the room metadata so lifecycle webhooks can echo it
	// back.
	CreateCall(ctx context.Context, meetingID, creatorID uuid.UUID, metadata map[string]string) (*CallHandle, error)

	// ConnectAIParticipant dispatches the configured agent into the
	// call with the given instructions and session tuning.
	ConnectAIParticipant(ctx context.Context, call *CallHandle, agentID uuid.UUID, instructions string, cfg SessionConfig) (RealtimeSession, error)

	// EndCall tears down the call room
	EndCall(ctx context.Context, roomName string) error
}

// NewClient creates a provisioning client. useMock selects the
// in-memory implementation for development and tests.
func NewClient(url, apiKey, apiSecret, agentName string, useMock bool, logger *zap.Logger) Client {
	if useMock {
		return newMockClient(logger)
	}
	return newLiveKitClient(url, apiKey, apiSecret, agentName, logger)
}
