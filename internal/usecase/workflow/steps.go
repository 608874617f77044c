package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/meetingloop/backend/errors"
	"github.com/meetingloop/backend/internal/domain/entities"
	"github.com/meetingloop/backend/internal/domain/repositories"
	"github.com/meetingloop/backend/internal/usecase/identity"
	"github.com/meetingloop/backend/pkg/ai"
	"github.com/meetingloop/backend/pkg/jobcontext"
)

// Step names. The names are part of the durable schema: a completed
// step row is looked up by (run, name), so renaming one would redo
// work on in-flight runs.
const (
	StepFetchTranscript = "fetch-transcript"
	StepParseTranscript = "parse-transcript"
	StepEnrichSpeakers  = "enrich-with-speakers"
	StepSummarize       = "summarize"
	StepStoreSummary    = "store-summary"
)

// StepFunc executes a named step with memoization. input feeds the
// step's input hash; fn runs only when no completed row exists.
type StepFunc func(ctx context.Context, name string, seq int, input string, fn func(context.Context) (interface{}, error)) (json.RawMessage, error)

// TranscriptArchive keeps a copy of the raw transcript blob. Archive
// failures never fail the pipeline.
type TranscriptArchive interface {
	ArchiveTranscript(ctx context.Context, meetingID uuid.UUID, body []byte) error
}

// Pipeline holds the five transcript processing steps
type Pipeline struct {
	meetingRepo   repositories.MeetingRepository
	resolver      *identity.Resolver
	summarizer    ai.Summarizer
	httpClient    *http.Client
	archive       TranscriptArchive
	summaryParams ai.SummaryParams
	logger        *zap.Logger
}

// NewPipeline creates the transcript pipeline. archive may be nil when
// blob storage is disabled.
func NewPipeline(
	meetingRepo repositories.MeetingRepository,
	resolver *identity.Resolver,
	summarizer ai.Summarizer,
	httpClient *http.Client,
	archive TranscriptArchive,
	summaryParams ai.SummaryParams,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		meetingRepo:   meetingRepo,
		resolver:      resolver,
		summarizer:    summarizer,
		httpClient:    httpClient,
		archive:       archive,
		summaryParams: summaryParams,
		logger:        logger,
	}
}

// Execute runs the five steps in order through the memoizing step
// runner. Any step error aborts the run; the engine decides between
// reschedule and terminal failure based on IsFatal.
func (p *Pipeline) Execute(ctx context.Context, run *entities.WorkflowRun, step StepFunc) error {
	rawOut, err := step(ctx, StepFetchTranscript, 1, run.TranscriptURL, func(ctx context.Context) (interface{}, error) {
		return p.fetchTranscript(ctx, run)
	})
	if err != nil {
		return err
	}
	var raw string
	if err := json.Unmarshal(rawOut, &raw); err != nil {
		return Fatalf("decoding cached transcript body: %v", err)
	}

	parsedOut, err := step(ctx, StepParseTranscript, 2, raw, func(ctx context.Context) (interface{}, error) {
		items, err := ParseTranscript(raw)
		if err != nil {
			// a malformed document will not fix itself
			return nil, Fatal(err)
		}
		return items, nil
	})
	if err != nil {
		return err
	}
	var transcript []entities.TranscriptItem
	if err := json.Unmarshal(parsedOut, &transcript); err != nil {
		return Fatalf("decoding cached transcript items: %v", err)
	}

	enrichedOut, err := step(ctx, StepEnrichSpeakers, 3, string(parsedOut), func(ctx context.Context) (interface{}, error) {
		return p.enrichSpeakers(ctx, transcript)
	})
	if err != nil {
		return err
	}
	var enriched []entities.EnrichedTranscriptItem
	if err := json.Unmarshal(enrichedOut, &enriched); err != nil {
		return Fatalf("decoding cached enriched transcript: %v", err)
	}

	summaryOut, err := step(ctx, StepSummarize, 4, string(enrichedOut), func(ctx context.Context) (interface{}, error) {
		summary, err := p.summarizer.Summarize(ctx, string(enrichedOut), p.summaryParams)
		if err != nil {
			if errors.Is(err, ai.ErrEmptySummary) {
				return nil, Fatal(err)
			}
			return nil, apperrors.ErrSummaryFailed(err)
		}
		return summary, nil
	})
	if err != nil {
		return err
	}
	var summary string
	if err := json.Unmarshal(summaryOut, &summary); err != nil {
		return Fatalf("decoding cached summary: %v", err)
	}

	_, err = step(ctx, StepStoreSummary, 5, summary, func(ctx context.Context) (interface{}, error) {
		updated, err := p.meetingRepo.CompleteWithSummary(ctx, run.MeetingID, summary)
		if err != nil {
			return nil, err
		}
		if !updated {
			return nil, Fatalf("meeting %s no longer exists", run.MeetingID)
		}
		return map[string]bool{"updated": true}, nil
	})
	return err
}

// fetchTranscript downloads the transcript blob with bounded retries.
// On success the raw body is optionally archived to blob storage.
func (p *Pipeline) fetchTranscript(ctx context.Context, run *entities.WorkflowRun) (string, error) {
	operation := func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, run.TranscriptURL, nil)
		if err != nil {
			return "", backoff.Permanent(err)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			if !jobcontext.IsRetryableError(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("transcript fetch returned status %d", resp.StatusCode)
			if !jobcontext.IsRetryableError(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	body, err := backoff.RetryWithData(operation, policy)
	if err != nil {
		return "", fmt.Errorf("fetching transcript: %w", err)
	}

	if p.archive != nil {
		if err := p.archive.ArchiveTranscript(ctx, run.MeetingID, []byte(body)); err != nil {
			p.logger.Warn("transcript archive failed",
				zap.String("meeting_id", run.MeetingID.String()),
				zap.Error(err))
		}
	}

	return body, nil
}

// enrichSpeakers attaches display identities to every utterance.
// Unresolvable speakers get the fallback name; this step has no
// failure mode of its own beyond repository errors.
func (p *Pipeline) enrichSpeakers(ctx context.Context, transcript []entities.TranscriptItem) ([]entities.EnrichedTranscriptItem, error) {
	idSet := make(map[string]bool, len(transcript))
	ids := make([]string, 0, len(transcript))
	for _, item := range transcript {
		if !idSet[item.SpeakerID] {
			idSet[item.SpeakerID] = true
			ids = append(ids, item.SpeakerID)
		}
	}

	resolved, err := p.resolver.Resolve(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving speakers: %w", err)
	}

	enriched := make([]entities.EnrichedTranscriptItem, len(transcript))
	for i, item := range transcript {
		speaker, ok := resolved[item.SpeakerID]
		if !ok {
			speaker = entities.Speaker{Name: entities.UnknownSpeakerName}
		}
		enriched[i] = entities.EnrichedTranscriptItem{
			TranscriptItem: item,
			Speaker:        speaker,
		}
	}
	return enriched, nil
}
