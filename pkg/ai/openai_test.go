package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newChatServer(t *testing.T, content string, capture *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if capture != nil {
			*capture = string(body)
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAISummarizer_Summarize(t *testing.T) {
	var requestBody string
	server := newChatServer(t, "# Standup\n\n## Resumen\nTodo bien.", &requestBody)
	defer server.Close()

	s := NewOpenAISummarizer("test-key", server.URL, "gpt-4o", zap.NewNop())
	summary, err := s.Summarize(context.Background(), `[{"text":"hola"}]`, SummaryParams{
		MaxSections: 6,
		Length:      SummaryLengthMedium,
	})

	require.NoError(t, err)
	assert.Contains(t, summary, "## Resumen")

	assert.Contains(t, requestBody, "resumidor experto de videollamadas")
	assert.Contains(t, requestBody, `max_sections: 6`)
	assert.Contains(t, requestBody, `max_len: \"media\"`)
	assert.Contains(t, requestBody, `[{\"text\":\"hola\"}]`)
}

func TestOpenAISummarizer_ForceLanguage(t *testing.T) {
	var requestBody string
	server := newChatServer(t, "summary", &requestBody)
	defer server.Close()

	s := NewOpenAISummarizer("test-key", server.URL, "gpt-4o", zap.NewNop())
	_, err := s.Summarize(context.Background(), "[]", SummaryParams{ForceLanguage: "en"})

	require.NoError(t, err)
	assert.Contains(t, requestBody, `force_language: \"en\"`)
}

func TestOpenAISummarizer_EmptyContent(t *testing.T) {
	server := newChatServer(t, "   ", nil)
	defer server.Close()

	s := NewOpenAISummarizer("test-key", server.URL, "gpt-4o", zap.NewNop())
	_, err := s.Summarize(context.Background(), "[]", SummaryParams{})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "empty content"))
}
