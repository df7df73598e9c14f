package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hirequiz/internal/config"
	contextutils "hirequiz/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientTestConfig(serverURL string, supportsSchema bool) *config.Config {
	return &config.Config{
		Providers: []config.ProviderConfig{
			{
				Name:           "Test Provider",
				Code:           "test",
				URL:            serverURL,
				SupportsSchema: supportsSchema,
				APIKey:         "sk-test-key-12345",
				Models: []config.AIModel{
					{Name: "Test Model", Code: "test-model", MaxTokens: 2048},
				},
			},
		},
		Generation: config.GenerationConfig{Timeout: 2 * time.Second},
	}
}

func chatOKBody(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return string(body)
}

func TestHTTPCompletionClient_Complete(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-key-12345", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatOKBody(`{"questions": []}`)))
	}))
	defer server.Close()

	client := NewHTTPCompletionClient(newClientTestConfig(server.URL, true), newTestLogger())

	raw, err := client.Complete(context.Background(), &CompletionRequest{
		Model:        "test-model",
		SystemPrompt: "system prompt",
		UserPrompt:   "user prompt",
		Schema:       `{"type": "object"}`,
		Temperature:  0.7,
		MaxTokens:    2048,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions": []}`, string(raw))

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "system prompt", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, `{"type": "object"}`, captured.Grammar)
	assert.Equal(t, 2048, captured.MaxTokens)
}

func TestHTTPCompletionClient_SchemaOmittedWhenUnsupported(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(chatOKBody(`{"questions": []}`)))
	}))
	defer server.Close()

	client := NewHTTPCompletionClient(newClientTestConfig(server.URL, false), newTestLogger())

	_, err := client.Complete(context.Background(), &CompletionRequest{
		Model:  "test-model",
		Schema: `{"type": "object"}`,
	})
	require.NoError(t, err)
	assert.Empty(t, captured.Grammar)
}

func TestHTTPCompletionClient_StripsMarkdownFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatOKBody("```json\n{\"questions\": []}\n```")))
	}))
	defer server.Close()

	client := NewHTTPCompletionClient(newClientTestConfig(server.URL, true), newTestLogger())

	raw, err := client.Complete(context.Background(), &CompletionRequest{Model: "test-model"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions": []}`, string(raw))
}

func TestHTTPCompletionClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected contextutils.ErrorCode
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error": {"message": "slow down"}}`, contextutils.ErrorCodeRateLimited},
		{"quota via 429", http.StatusTooManyRequests, `{"error": {"message": "monthly quota exceeded"}}`, contextutils.ErrorCodeQuotaExceeded},
		{"quota via 402", http.StatusPaymentRequired, `{"error": {"message": "billing"}}`, contextutils.ErrorCodeQuotaExceeded},
		{"content filter", http.StatusBadRequest, `{"error": {"message": "content policy violation"}}`, contextutils.ErrorCodeContentFiltered},
		{"model missing", http.StatusNotFound, `{"error": {"message": "no such model"}}`, contextutils.ErrorCodeModelUnavailable},
		{"server error", http.StatusInternalServerError, "boom", contextutils.ErrorCodeModelUnavailable},
		{"bad gateway", http.StatusBadGateway, "upstream", contextutils.ErrorCodeModelUnavailable},
		{"generic 400", http.StatusBadRequest, `{"error": {"message": "malformed"}}`, contextutils.ErrorCodeGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewHTTPCompletionClient(newClientTestConfig(server.URL, true), newTestLogger())
			_, err := client.Complete(context.Background(), &CompletionRequest{Model: "test-model"})
			require.Error(t, err)
			assert.Equal(t, tt.expected, contextutils.GetErrorCode(err))
		})
	}
}

func TestHTTPCompletionClient_InBodyErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		errType  string
		expected contextutils.ErrorCode
	}{
		{"content filter", "content_filter", contextutils.ErrorCodeContentFiltered},
		{"rate limit", "rate_limit_error", contextutils.ErrorCodeRateLimited},
		{"quota", "insufficient_quota", contextutils.ErrorCodeQuotaExceeded},
		{"overloaded", "overloaded_error", contextutils.ErrorCodeModelUnavailable},
		{"generic", "server_error", contextutils.ErrorCodeGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := json.Marshal(map[string]interface{}{
					"error": map[string]string{"message": "provider said no", "type": tt.errType},
				})
				_, _ = w.Write(body)
			}))
			defer server.Close()

			client := NewHTTPCompletionClient(newClientTestConfig(server.URL, true), newTestLogger())
			_, err := client.Complete(context.Background(), &CompletionRequest{Model: "test-model"})
			require.Error(t, err)
			assert.Equal(t, tt.expected, contextutils.GetErrorCode(err))
		})
	}
}

func TestHTTPCompletionClient_ContentFilterFinishReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": ""}, "finish_reason": "content_filter"},
			},
		})
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := NewHTTPCompletionClient(newClientTestConfig(server.URL, true), newTestLogger())
	_, err := client.Complete(context.Background(), &CompletionRequest{Model: "test-model"})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeContentFiltered, contextutils.GetErrorCode(err))
}

func TestHTTPCompletionClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(chatOKBody(`{}`)))
	}))
	defer server.Close()

	client := NewHTTPCompletionClient(newClientTestConfig(server.URL, true), newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, &CompletionRequest{Model: "test-model"})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeTimeout, contextutils.GetErrorCode(err))
}

func TestHTTPCompletionClient_InvalidContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices": []}`},
		{"non-JSON content", chatOKBody("sure, here are your questions!")},
		{"empty content", chatOKBody("")},
		{"body not JSON", "<html>gateway</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewHTTPCompletionClient(newClientTestConfig(server.URL, true), newTestLogger())
			_, err := client.Complete(context.Background(), &CompletionRequest{Model: "test-model"})
			require.Error(t, err)
			assert.Equal(t, contextutils.ErrorCodeInvalidResponse, contextutils.GetErrorCode(err))
		})
	}
}

func TestHTTPCompletionClient_UnknownModel(t *testing.T) {
	client := NewHTTPCompletionClient(newClientTestConfig("http://unused", true), newTestLogger())

	_, err := client.Complete(context.Background(), &CompletionRequest{Model: "other-model"})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeModelUnavailable, contextutils.GetErrorCode(err))

	_, err = client.Complete(context.Background(), &CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeProviderConfigInvalid, contextutils.GetErrorCode(err))
}
