package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/pkg/ai"
)

type fakeRunRepo struct {
	mu          sync.Mutex
	runs        map[uuid.UUID]*entities.WorkflowRun
	byDedupeKey map[string]uuid.UUID
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{
		runs:        make(map[uuid.UUID]*entities.WorkflowRun),
		byDedupeKey: make(map[string]uuid.UUID),
	}
}

func (f *fakeRunRepo) Create(ctx context.Context, run *entities.WorkflowRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.byDedupeKey[run.DedupeKey]; dup {
		return entities.ErrRunAlreadyQueued
	}
	cp := *run
	f.runs[run.ID] = &cp
	f.byDedupeKey[run.DedupeKey] = run.ID
	return nil
}

func (f *fakeRunRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, entities.ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

func (f *fakeRunRepo) ClaimNextPending(ctx context.Context) (*entities.WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.runs {
		if run.Status == entities.WorkflowRunStatusPending && !run.NextRunAt.After(time.Now()) {
			run.Status = entities.WorkflowRunStatusRunning
			cp := *run
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRunRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[id].Status = entities.WorkflowRunStatusCompleted
	return nil
}

func (f *fakeRunRepo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[id].Status = entities.WorkflowRunStatusFailed
	f.runs[id].LastError = &lastError
	return nil
}

func (f *fakeRunRepo) Reschedule(ctx context.Context, id uuid.UUID, nextRunAt time.Time, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.runs[id]
	run.Status = entities.WorkflowRunStatusPending
	run.RetryCount++
	run.NextRunAt = nextRunAt
	run.LastError = &lastError
	return nil
}

func (f *fakeRunRepo) ResetStuckRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRunRepo) get(id uuid.UUID) *entities.WorkflowRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.runs[id]
	return &cp
}

type stepKey struct {
	runID uuid.UUID
	name  string
}

type fakeStepRepo struct {
	mu    sync.Mutex
	steps map[stepKey]*entities.WorkflowStep
}

func newFakeStepRepo() *fakeStepRepo {
	return &fakeStepRepo{steps: make(map[stepKey]*entities.WorkflowStep)}
}

func (f *fakeStepRepo) FindByRunAndName(ctx context.Context, runID uuid.UUID, name string) (*entities.WorkflowStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	step, ok := f.steps[stepKey{runID, name}]
	if !ok {
		return nil, entities.ErrStepNotFound
	}
	cp := *step
	return &cp, nil
}

func (f *fakeStepRepo) Save(ctx context.Context, step *entities.WorkflowStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *step
	f.steps[stepKey{step.RunID, step.Name}] = &cp
	return nil
}

type fakeMeetingRepo struct {
	mu             sync.Mutex
	summaries      map[uuid.UUID]string
	completeCalls  int
	missingMeeting bool
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{summaries: make(map[uuid.UUID]string)}
}

func (f *fakeMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	panic("not used")
}

func (f *fakeMeetingRepo) TransitionToActive(ctx context.Context, id uuid.UUID) (bool, error) {
	panic("not used")
}

func (f *fakeMeetingRepo) TransitionToProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	panic("not used")
}

func (f *fakeMeetingRepo) SetTranscriptURL(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	panic("not used")
}

func (f *fakeMeetingRepo) SetRecordingURL(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	panic("not used")
}

func (f *fakeMeetingRepo) CompleteWithSummary(ctx context.Context, id uuid.UUID, summary string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	if f.missingMeeting {
		return false, nil
	}
	f.summaries[id] = summary
	return true, nil
}

type fakeUserRepo struct {
	users []*entities.User
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	panic("not used")
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.User, error) {
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
}

func (f *fakeAgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Agent, error) {
	panic("not used")
}

func (f *fakeAgentRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Agent, error) {
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

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	lastIn  string
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcriptJSON string, params ai.SummaryParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastIn = transcriptJSON
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}
