package handler

import (
	"encoding/json"
	stdErrors "errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/meetingloop/backend/errors"
	"github.com/meetingloop/backend/internal/adapter/dto/webhook"
	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/infrastructure/external/video"
	"github.com/meetingloop/backend/pkg/callid"
)

// handleSessionStarted activates the meeting and connects the AI
// participant. The status write commits before provisioning; a
// provisioning failure after that point has no compensating rollback.
func (h *Webhook) handleSessionStarted(c echo.Context, body []byte) error {
	ctx := c.Request().Context()

	var ev webhook.SessionStartedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&ev); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	rawID := ev.Call.MeetingID()
	if rawID == "" {
		return HandleError(h.logger, c, errors.ErrMissingField("meetingId"))
	}
	meetingID, err := uuid.Parse(rawID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("meetingId is not a valid uuid"))
	}

	meeting, err := h.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrMeetingNotFound) {
			return HandleError(h.logger, c, errors.ErrMeetingNotFound(rawID))
		}
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("find meeting", err))
	}
	if !meeting.CanStart() {
		// wrong-state deliveries are acknowledged so the provider
		// stops retrying; only an absent row is a 404
		h.logger.Info("session_started for non-startable meeting ignored",
			zap.String("meeting_id", rawID),
			zap.String("status", string(meeting.Status)),
			zap.Bool("terminal", meeting.IsTerminal()))
		return ok(c)
	}

	agent, err := h.agentRepo.FindByID(ctx, meeting.AgentID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrAgentNotFound) {
			return HandleError(h.logger, c, errors.ErrAgentNotFound(meeting.AgentID.String()))
		}
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("find agent", err))
	}

	activated, err := h.meetingRepo.TransitionToActive(ctx, meetingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("activate meeting", err))
	}
	if !activated {
		// a concurrent delivery won the transition; one connect call
		// has already happened
		h.logger.Info("duplicate session_started ignored",
			zap.String("meeting_id", rawID))
		return ok(c)
	}

	call := &video.CallHandle{RoomName: meetingID.String()}
	session, err := h.videoClient.ConnectAIParticipant(ctx, call, agent.ID, agent.Instructions, video.DefaultSessionConfig())
	if err != nil {
		return HandleError(h.logger, c, errors.ErrProvisioningFailed("connect ai participant", err))
	}
	if err := session.UpdateSession(ctx, video.DefaultSessionConfig()); err != nil {
		h.logger.Warn("session update failed",
			zap.String("meeting_id", rawID),
			zap.Error(err))
	}

	h.logger.Info("meeting activated",
		zap.String("meeting_id", rawID),
		zap.String("agent_id", agent.ID.String()))
	return ok(c)
}

// handleParticipantLeft ends the call unconditionally
func (h *Webhook) handleParticipantLeft(c echo.Context, body []byte) error {
	ctx := c.Request().Context()

	var ev webhook.ParticipantLeftEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&ev); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	cid, err := callid.Parse(ev.CallCID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	if err := h.videoClient.EndCall(ctx, cid.MeetingID.String()); err != nil {
		return HandleError(h.logger, c, errors.ErrProvisioningFailed("end call", err))
	}

	return ok(c)
}

// handleSessionEnded moves an active meeting to processing. Anything
// not currently active is left untouched.
func (h *Webhook) handleSessionEnded(c echo.Context, body []byte) error {
	ctx := c.Request().Context()

	var ev webhook.SessionEndedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&ev); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	rawID := ev.Call.MeetingID()
	if rawID == "" {
		return HandleError(h.logger, c, errors.ErrMissingField("meetingId"))
	}
	meetingID, err := uuid.Parse(rawID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("meetingId is not a valid uuid"))
	}

	transitioned, err := h.meetingRepo.TransitionToProcessing(ctx, meetingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("end meeting", err))
	}
	if !transitioned {
		h.logger.Info("session_ended for non-active meeting ignored",
			zap.String("meeting_id", rawID))
	}

	return ok(c)
}

// handleTranscriptionReady attaches the transcript URL and enqueues
// the processing run.
func (h *Webhook) handleTranscriptionReady(c echo.Context, body []byte) error {
	ctx := c.Request().Context()

	var ev webhook.TranscriptionReadyEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&ev); err != nil {
		return HandleError(h.logger, c, errors.ErrMissingField("call_transcription.url"))
	}

	cid, err := callid.Parse(ev.CallCID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	updated, err := h.meetingRepo.SetTranscriptURL(ctx, cid.MeetingID, ev.Transcription.URL)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("set transcript url", err))
	}
	if !updated {
		return HandleError(h.logger, c, errors.ErrMeetingNotFound(cid.MeetingID.String()))
	}

	if _, err := h.enqueuer.Enqueue(ctx, cid.MeetingID, ev.Transcription.URL); err != nil {
		return HandleError(h.logger, c, errors.ErrWorkflowEnqueueFailed(err))
	}

	return ok(c)
}

// handleRecordingReady attaches the recording URL. Soft update: an
// absent meeting is acknowledged, not an error.
func (h *Webhook) handleRecordingReady(c echo.Context, body []byte) error {
	ctx := c.Request().Context()

	var ev webhook.RecordingReadyEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&ev); err != nil {
		return HandleError(h.logger, c, errors.ErrMissingField("call_recording.url"))
	}

	cid, err := callid.Parse(ev.CallCID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	updated, err := h.meetingRepo.SetRecordingURL(ctx, cid.MeetingID, ev.Recording.URL)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("set recording url", err))
	}
	if !updated {
		h.logger.Warn("recording_ready for unknown meeting",
			zap.String("meeting_id", cid.MeetingID.String()))
	}

	return ok(c)
}
