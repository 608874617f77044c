package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

type openAISummarizer struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAISummarizer creates a Summarizer backed by the chat
// completions API. baseURL is optional and exists for pointing at a
// compatible gateway or a test server.
func NewOpenAISummarizer(apiKey, baseURL, model string, logger *zap.Logger) Summarizer {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAISummarizer{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (s *openAISummarizer) Summarize(ctx context.Context, transcriptJSON string, params SummaryParams) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(strings.TrimSpace(summarizerSystemPrompt)),
			openai.UserMessage(buildUserMessage(transcriptJSON, params)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptySummary
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", ErrEmptySummary
	}

	s.logger.Debug("transcript summarized",
		zap.String("model", s.model),
		zap.Int("summary_chars", len(summary)))
	return summary, nil
}
