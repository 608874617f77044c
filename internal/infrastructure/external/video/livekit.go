package video

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	livekit "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"go.uber.org/zap"
)

const (
	// rooms auto-delete when nobody joins or everyone leaves
	emptyTimeoutSeconds     = 300
	departureTimeoutSeconds = 30
)

type liveKitClient struct {
	roomClient     *lksdk.RoomServiceClient
	dispatchClient *lksdk.AgentDispatchClient
	agentName      string
	logger         *zap.Logger
}

func newLiveKitClient(url, apiKey, apiSecret, agentName string, logger *zap.Logger) Client {
	return &liveKitClient{
		roomClient:     lksdk.NewRoomServiceClient(url, apiKey, apiSecret),
		dispatchClient: lksdk.NewAgentDispatchServiceClient(url, apiKey, apiSecret),
		agentName:      agentName,
		logger:         logger,
	}
}

func (c *liveKitClient) CreateCall(ctx context.Context, meetingID, creatorID uuid.UUID, metadata map[string]string) (*CallHandle, error) {
	custom := map[string]string{
		"meetingId": meetingID.String(),
		"creatorId": creatorID.String(),
	}
	for k, v := range metadata {
		custom[k] = v
	}
	encoded, err := json.Marshal(custom)
	if err != nil {
		return nil, fmt.Errorf("encoding call metadata: %w", err)
	}

	room, err := c.roomClient.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:             meetingID.String(),
		EmptyTimeout:     emptyTimeoutSeconds,
		DepartureTimeout: departureTimeoutSeconds,
		Metadata:         string(encoded),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	c.logger.Info("call created",
		zap.String("meeting_id", meetingID.String()),
		zap.String("room_sid", room.Sid))
	return &CallHandle{RoomName: room.Name, SID: room.Sid}, nil
}

func (c *liveKitClient) ConnectAIParticipant(ctx context.Context, call *CallHandle, agentID uuid.UUID, instructions string, cfg SessionConfig) (RealtimeSession, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"agentId":      agentID.String(),
		"instructions": instructions,
		"session":      cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding dispatch metadata: %w", err)
	}

	dispatch, err := c.dispatchClient.CreateDispatch(ctx, &livekit.CreateAgentDispatchRequest{
		Room:      call.RoomName,
		AgentName: c.agentName,
		Metadata:  string(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch agent: %w", err)
	}

	c.logger.Info("ai participant dispatched",
		zap.String("room", call.RoomName),
		zap.String("agent_id", agentID.String()),
		zap.String("dispatch_id", dispatch.Id))
	return &liveKitSession{roomClient: c.roomClient, roomName: call.RoomName}, nil
}

func (c *liveKitClient) EndCall(ctx context.Context, roomName string) error {
	_, err := c.roomClient.DeleteRoom(ctx, &livekit.DeleteRoomRequest{
		Room: roomName,
	})
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}

// liveKitSession updates an in-call agent by sending a reliable data
// message the agent listens for.
type liveKitSession struct {
	roomClient *lksdk.RoomServiceClient
	roomName   string
}

func (s *liveKitSession) UpdateSession(ctx context.Context, cfg SessionConfig) error {
	data, err := json.Marshal(map[string]interface{}{
		"type":    "session.update",
		"session": cfg,
	})
	if err != nil {
		return fmt.Errorf("encoding session update: %w", err)
	}

	_, err = s.roomClient.SendData(ctx, &livekit.SendDataRequest{
		Room: s.roomName,
		Data: data,
		Kind: livekit.DataPacket_RELIABLE,
	})
	if err != nil {
		return fmt.Errorf("failed to send session update: %w", err)
	}
	return nil
}
