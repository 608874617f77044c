package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/infrastructure/external/video"
	"github.com/meetingloop/backend/internal/usecase/workflow"
	"github.com/meetingloop/backend/pkg/config"
	"github.com/meetingloop/backend/pkg/signature"
	pkgvalidator "github.com/meetingloop/backend/pkg/validator"
)

const testSecret = "webhook-test-secret"

type memMeetingRepo struct {
	meetings map[uuid.UUID]*entities.Meeting
}

func newMemMeetingRepo(meetings ...*entities.Meeting) *memMeetingRepo {
	repo := &memMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
	for _, m := range meetings {
		repo.meetings[m.ID] = m
	}
	return repo
}

func (r *memMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	m, ok := r.meetings[id]
	if !ok {
		return nil, entities.ErrMeetingNotFound
	}
	return m, nil
}

func (r *memMeetingRepo) TransitionToActive(ctx context.Context, id uuid.UUID) (bool, error) {
	m, ok := r.meetings[id]
	if !ok || !m.CanStart() {
		return false, nil
	}
	now := time.Now()
	m.Status = entities.MeetingStatusActive
	m.StartedAt = &now
	return true, nil
}

func (r *memMeetingRepo) TransitionToProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	m, ok := r.meetings[id]
	if !ok || m.Status != entities.MeetingStatusActive {
		return false, nil
	}
	now := time.Now()
	m.Status = entities.MeetingStatusProcessing
	m.EndedAt = &now
	return true, nil
}

func (r *memMeetingRepo) SetTranscriptURL(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	m, ok := r.meetings[id]
	if !ok {
		return false, nil
	}
	m.TranscriptURL = &url
	return true, nil
}

func (r *memMeetingRepo) SetRecordingURL(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	m, ok := r.meetings[id]
	if !ok {
		return false, nil
	}
	m.RecordingURL = &url
	return true, nil
}

func (r *memMeetingRepo) CompleteWithSummary(ctx context.Context, id uuid.UUID, summary string) (bool, error) {
	m, ok := r.meetings[id]
	if !ok {
		return false, nil
	}
	m.Summary = &summary
	m.Status = entities.MeetingStatusCompleted
	return true, nil
}

type memAgentRepo struct {
	agents map[uuid.UUID]*entities.Agent
}

func newMemAgentRepo(agents ...*entities.Agent) *memAgentRepo {
	repo := &memAgentRepo{agents: make(map[uuid.UUID]*entities.Agent)}
	for _, a := range agents {
		repo.agents[a.ID] = a
	}
	return repo
}

func (r *memAgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, entities.ErrAgentNotFound
	}
	return a, nil
}

func (r *memAgentRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Agent, error) {
	var out []*entities.Agent
	for _, id := range ids {
		if a, ok := r.agents[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type memRunRepo struct {
	runs    []*entities.WorkflowRun
	dedupes map[string]bool
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{dedupes: make(map[string]bool)}
}

func (r *memRunRepo) Create(ctx context.Context, run *entities.WorkflowRun) error {
	if r.dedupes[run.DedupeKey] {
		return entities.ErrRunAlreadyQueued
	}
	r.dedupes[run.DedupeKey] = true
	r.runs = append(r.runs, run)
	return nil
}

func (r *memRunRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.WorkflowRun, error) {
	return nil, entities.ErrRunNotFound
}

func (r *memRunRepo) ClaimNextPending(ctx context.Context) (*entities.WorkflowRun, error) {
	return nil, nil
}

func (r *memRunRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memRunRepo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return nil
}

func (r *memRunRepo) Reschedule(ctx context.Context, id uuid.UUID, nextRunAt time.Time, lastError string) error {
	return nil
}

func (r *memRunRepo) ResetStuckRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type gatewayFixture struct {
	handler     *Webhook
	meetingRepo *memMeetingRepo
	agentRepo   *memAgentRepo
	runRepo     *memRunRepo
	videoClient *video.MockClient
}

func newGateway(meetingRepo *memMeetingRepo, agentRepo *memAgentRepo) *gatewayFixture {
	cfg := &config.Config{}
	cfg.Video.WebhookSecret = testSecret
	cfg.Video.WebhookAPIKey = "test-api-key"

	runRepo := newMemRunRepo()
	videoClient := video.NewMockClient()
	enqueuer := workflow.NewEnqueuer(runRepo, nil, 3, zap.NewNop())

	return &gatewayFixture{
		handler:     NewWebhook(cfg, meetingRepo, agentRepo, videoClient, enqueuer, zap.NewNop()),
		meetingRepo: meetingRepo,
		agentRepo:   agentRepo,
		runRepo:     runRepo,
		videoClient: videoClient,
	}
}

type headerOpt func(*http.Request)

func withoutHeaders() headerOpt {
	return func(r *http.Request) {
		r.Header.Del("x-signature")
		r.Header.Del("x-api-key")
	}
}

func withSignature(sig string) headerOpt {
	return func(r *http.Request) {
		r.Header.Set("x-signature", sig)
	}
}

func deliver(t *testing.T, f *gatewayFixture, body string, opts ...headerOpt) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/video", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("x-signature", signature.Sign(testSecret, []byte(body)))
	req.Header.Set("x-api-key", "test-api-key")
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e := echo.New()
	e.Validator = pkgvalidator.New()
	c := e.NewContext(req, rec)
	require.NoError(t, f.handler.Handle(c))
	return rec
}

func upcomingMeeting(agentID uuid.UUID) *entities.Meeting {
	return &entities.Meeting{
		ID:      uuid.New(),
		Name:    "Weekly sync",
		AgentID: agentID,
		UserID:  uuid.New(),
		Status:  entities.MeetingStatusUpcoming,
	}
}

func TestWebhook_MissingHeaders(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())
	rec := deliver(t, f, `{"type":"call.session_started"}`, withoutHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())
	rec := deliver(t, f, `{"type":"call.session_started"}`, withSignature("deadbeef"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhook_MalformedJSON(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())
	rec := deliver(t, f, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_UnknownTypeAcknowledged(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())
	rec := deliver(t, f, `{"type":"call.something_else"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func sessionStartedBody(meetingID string) string {
	return fmt.Sprintf(`{"type":"call.session_started","call":{"cid":"default:%s","custom":{"meetingId":%q}}}`, meetingID, meetingID)
}

func TestWebhook_SessionStarted(t *testing.T) {
	agent := &entities.Agent{ID: uuid.New(), Name: "Notetaker", Instructions: "Take notes"}
	meeting := upcomingMeeting(agent.ID)
	f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo(agent))

	rec := deliver(t, f, sessionStartedBody(meeting.ID.String()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entities.MeetingStatusActive, meeting.Status)
	assert.NotNil(t, meeting.StartedAt)
	require.Len(t, f.videoClient.ConnectedAgents, 1)
	assert.Equal(t, agent.ID, f.videoClient.ConnectedAgents[0])
	require.Len(t, f.videoClient.Sessions, 1)
	assert.Equal(t, "semantic_vad", f.videoClient.Sessions[0].Config.TurnDetection)
}

func TestWebhook_SessionStarted_DuplicateDelivery(t *testing.T) {
	agent := &entities.Agent{ID: uuid.New(), Name: "Notetaker"}
	meeting := upcomingMeeting(agent.ID)
	f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo(agent))

	first := deliver(t, f, sessionStartedBody(meeting.ID.String()))
	assert.Equal(t, http.StatusOK, first.Code)
	startedAt := meeting.StartedAt

	// the second delivery finds the meeting already active: silent
	// no-op, acknowledged, no second connect call
	second := deliver(t, f, sessionStartedBody(meeting.ID.String()))
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, entities.MeetingStatusActive, meeting.Status)
	assert.Equal(t, startedAt, meeting.StartedAt)
	assert.Len(t, f.videoClient.ConnectedAgents, 1)
}

func TestWebhook_SessionStarted_WrongStateNoOp(t *testing.T) {
	agent := &entities.Agent{ID: uuid.New(), Name: "Notetaker"}

	for _, status := range []entities.MeetingStatus{
		entities.MeetingStatusActive,
		entities.MeetingStatusProcessing,
		entities.MeetingStatusCompleted,
		entities.MeetingStatusCancelled,
	} {
		meeting := upcomingMeeting(agent.ID)
		meeting.Status = status
		f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo(agent))

		rec := deliver(t, f, sessionStartedBody(meeting.ID.String()))

		assert.Equal(t, http.StatusOK, rec.Code, status)
		assert.Equal(t, status, meeting.Status, status)
		assert.Nil(t, meeting.StartedAt, status)
		assert.Empty(t, f.videoClient.ConnectedAgents, status)
	}
}

func TestWebhook_SessionStarted_UnknownMeeting(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())
	rec := deliver(t, f, sessionStartedBody(uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.videoClient.ConnectedAgents)
}

func TestWebhook_SessionStarted_UnknownAgent(t *testing.T) {
	meeting := upcomingMeeting(uuid.New())
	f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo())

	rec := deliver(t, f, sessionStartedBody(meeting.ID.String()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, entities.MeetingStatusUpcoming, meeting.Status)
	assert.Empty(t, f.videoClient.ConnectedAgents)
}

func TestWebhook_SessionStarted_MissingMeetingID(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())
	rec := deliver(t, f, `{"type":"call.session_started","call":{"custom":{}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_ParticipantLeft(t *testing.T) {
	meetingID := uuid.New()
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())

	body := fmt.Sprintf(`{"type":"call.session_participant_left","call_cid":"default:%s"}`, meetingID)
	rec := deliver(t, f, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.videoClient.EndedRooms, 1)
	assert.Equal(t, meetingID.String(), f.videoClient.EndedRooms[0])
}

func TestWebhook_ParticipantLeft_MalformedCID(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())

	for _, cid := range []string{"no-delimiter", ":missing-namespace", "default:", "default:not-a-uuid"} {
		body := fmt.Sprintf(`{"type":"call.session_participant_left","call_cid":%q}`, cid)
		rec := deliver(t, f, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, cid)
	}
	assert.Empty(t, f.videoClient.EndedRooms)
}

func TestWebhook_SessionEnded(t *testing.T) {
	agent := &entities.Agent{ID: uuid.New(), Name: "Notetaker"}
	meeting := upcomingMeeting(agent.ID)
	meeting.Status = entities.MeetingStatusActive
	f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo(agent))

	body := fmt.Sprintf(`{"type":"call.session_ended","call":{"custom":{"meetingId":%q}}}`, meeting.ID)
	rec := deliver(t, f, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entities.MeetingStatusProcessing, meeting.Status)
	assert.NotNil(t, meeting.EndedAt)
}

func TestWebhook_SessionEnded_NonActiveNoOp(t *testing.T) {
	agent := &entities.Agent{ID: uuid.New()}
	meeting := upcomingMeeting(agent.ID)
	f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo(agent))

	body := fmt.Sprintf(`{"type":"call.session_ended","call":{"custom":{"meetingId":%q}}}`, meeting.ID)
	rec := deliver(t, f, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entities.MeetingStatusUpcoming, meeting.Status)
	assert.Nil(t, meeting.EndedAt)
}

func TestWebhook_TranscriptionReady(t *testing.T) {
	agent := &entities.Agent{ID: uuid.New()}
	meeting := upcomingMeeting(agent.ID)
	meeting.Status = entities.MeetingStatusProcessing
	f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo(agent))

	body := fmt.Sprintf(`{"type":"call.transcription_ready","call_cid":"default:%s","call_transcription":{"url":"https://blobs/t.jsonl"}}`, meeting.ID)
	rec := deliver(t, f, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, meeting.TranscriptURL)
	assert.Equal(t, "https://blobs/t.jsonl", *meeting.TranscriptURL)

	require.Len(t, f.runRepo.runs, 1)
	run := f.runRepo.runs[0]
	assert.Equal(t, "meetings/processing", run.EventName)
	assert.Equal(t, meeting.ID, run.MeetingID)
	assert.Equal(t, "https://blobs/t.jsonl", run.TranscriptURL)
}

func TestWebhook_TranscriptionReady_UnknownMeeting(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())

	body := fmt.Sprintf(`{"type":"call.transcription_ready","call_cid":"default:%s","call_transcription":{"url":"https://blobs/t.jsonl"}}`, uuid.New())
	rec := deliver(t, f, body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.runRepo.runs)
}

func TestWebhook_TranscriptionReady_DuplicateEventSingleRun(t *testing.T) {
	agent := &entities.Agent{ID: uuid.New()}
	meeting := upcomingMeeting(agent.ID)
	f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo(agent))

	body := fmt.Sprintf(`{"type":"call.transcription_ready","call_cid":"default:%s","call_transcription":{"url":"https://blobs/t.jsonl"}}`, meeting.ID)
	assert.Equal(t, http.StatusOK, deliver(t, f, body).Code)
	assert.Equal(t, http.StatusOK, deliver(t, f, body).Code)

	assert.Len(t, f.runRepo.runs, 1)
}

func TestWebhook_RecordingReady(t *testing.T) {
	agent := &entities.Agent{ID: uuid.New()}
	meeting := upcomingMeeting(agent.ID)
	f := newGateway(newMemMeetingRepo(meeting), newMemAgentRepo(agent))

	body := fmt.Sprintf(`{"type":"call.recording_ready","call_cid":"default:%s","call_recording":{"url":"https://blobs/rec.mp4"}}`, meeting.ID)
	rec := deliver(t, f, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, meeting.RecordingURL)
	assert.Equal(t, "https://blobs/rec.mp4", *meeting.RecordingURL)
}

func TestWebhook_RecordingReady_UnknownMeetingSoft(t *testing.T) {
	f := newGateway(newMemMeetingRepo(), newMemAgentRepo())

	body := fmt.Sprintf(`{"type":"call.recording_ready","call_cid":"default:%s","call_recording":{"url":"https://blobs/rec.mp4"}}`, uuid.New())
	rec := deliver(t, f, body)

	assert.Equal(t, http.StatusOK, rec.Code)
}
