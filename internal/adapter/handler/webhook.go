package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/meetingloop/backend/errors"
	"github.com/meetingloop/backend/internal/adapter/dto/webhook"
	"github.com/meetingloop/backend/internal/domain/repositories"
	"github.com/meetingloop/backend/internal/infrastructure/external/video"
	"github.com/meetingloop/backend/internal/usecase/workflow"
	"github.com/meetingloop/backend/pkg/config"
	"github.com/meetingloop/backend/pkg/signature"
)

// Webhook receives call lifecycle events from the video provider and
// drives the meeting state machine.
type Webhook struct {
	cfg         *config.Config
	meetingRepo repositories.MeetingRepository
	agentRepo   repositories.AgentRepository
	videoClient video.Client
	enqueuer    *workflow.Enqueuer
	logger      *zap.Logger
}

// NewWebhook creates the webhook gateway handler
func NewWebhook(
	cfg *config.Config,
	meetingRepo repositories.MeetingRepository,
	agentRepo repositories.AgentRepository,
	videoClient video.Client,
	enqueuer *workflow.Enqueuer,
	logger *zap.Logger,
) *Webhook {
	return &Webhook{
		cfg:         cfg,
		meetingRepo: meetingRepo,
		agentRepo:   agentRepo,
		videoClient: videoClient,
		enqueuer:    enqueuer,
		logger:      logger,
	}
}

// ok is the canonical acknowledgement; the provider retries anything
// that is not a 2xx.
func ok(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Handle authenticates and dispatches one webhook delivery. Header
// presence is checked before the body is read; the signature covers
// the exact raw bytes.
func (h *Webhook) Handle(c echo.Context) error {
	sig := c.Request().Header.Get("x-signature")
	apiKey := c.Request().Header.Get("x-api-key")
	if sig == "" || apiKey == "" {
		return HandleError(h.logger, c, errors.ErrMissingWebhookHeaders())
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	if !signature.Verify(h.cfg.Video.WebhookSecret, body, sig) {
		return HandleError(h.logger, c, errors.ErrInvalidSignature())
	}

	var envelope webhook.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	h.logger.Info("webhook received",
		zap.String("request_id", getRequestID(c)),
		zap.String("type", envelope.Type))

	switch envelope.Type {
	case webhook.EventSessionStarted:
		return h.handleSessionStarted(c, body)
	case webhook.EventParticipantLeft:
		return h.handleParticipantLeft(c, body)
	case webhook.EventSessionEnded:
		return h.handleSessionEnded(c, body)
	case webhook.EventTranscriptionReady:
		return h.handleTranscriptionReady(c, body)
	case webhook.EventRecordingReady:
		return h.handleRecordingReady(c, body)
	default:
		// unknown event types are acknowledged, not errors
		h.logger.Debug("ignoring webhook type", zap.String("type", envelope.Type))
		return ok(c)
	}
}
