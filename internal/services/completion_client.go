package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"hirequiz/internal/config"
	"hirequiz/internal/observability"
	contextutils "hirequiz/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CompletionRequest describes a single schema-constrained completion call.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	// Schema is a JSON Schema document constraining the output. Left empty
	// for providers that don't support schema-constrained decoding; the
	// system prompt carries the structure contract in that case.
	Schema      string
	Temperature float64
	MaxTokens   int
}

// CompletionClient is the single external capability the generation pipeline
// depends on. Implementations must map provider-specific failures into the
// generation error taxonomy so the executor can decide retryability.
type CompletionClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (json.RawMessage, error)
}

// chatRequest represents a request to an OpenAI-compatible API
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Grammar     string        `json:"grammar,omitempty"`
}

// chatMessage represents a chat message in the API request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents a response from an OpenAI-compatible API
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// HTTPCompletionClient calls OpenAI-compatible chat completion endpoints. The
// provider serving a model is resolved from configuration; the schema
// constraint is passed through the request's grammar field when the provider
// supports it.
type HTTPCompletionClient struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *observability.Logger
}

// NewHTTPCompletionClient creates an instrumented completion client.
func NewHTTPCompletionClient(cfg *config.Config, logger *observability.Logger) *HTTPCompletionClient {
	// Client-level timeout slightly above the per-attempt timeout so the
	// executor's context deadline fires first and maps to TIMEOUT.
	httpClient := &http.Client{
		Timeout: cfg.Generation.Timeout + 5*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	return &HTTPCompletionClient{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Complete performs one completion call and returns the parsed JSON object
// emitted by the model. The returned error is always an AppError from the
// generation taxonomy.
func (c *HTTPCompletionClient) Complete(ctx context.Context, req *CompletionRequest) (result0 json.RawMessage, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "complete",
		observability.AttributeModel(req.Model),
		attribute.Int("prompt.system_length", len(req.SystemPrompt)),
		attribute.Int("prompt.user_length", len(req.UserPrompt)),
		attribute.Bool("schema.enabled", req.Schema != ""),
	)
	defer observability.FinishSpan(span, &err)

	if req.Model == "" {
		return nil, contextutils.WrapError(contextutils.ErrProviderConfigInvalid, "model is required")
	}

	provider := c.cfg.ProviderForModel(req.Model)
	if provider == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrModelUnavailable, "no provider configured for model '%s'", req.Model)
	}
	if provider.URL == "" {
		return nil, contextutils.WrapErrorf(contextutils.ErrProviderConfigInvalid, "no base URL configured for provider '%s'", provider.Code)
	}

	body := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if provider.SupportsSchema && req.Schema != "" {
		body.Grammar = req.Schema
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to marshal completion request")
	}

	endpoint := provider.URL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to create HTTP request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "hirequiz/1.0")
	if provider.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+provider.APIKey)
	}

	c.logger.Debug(ctx, "Starting completion request", map[string]interface{}{
		"url":      endpoint,
		"model":    req.Model,
		"provider": provider.Code,
		"api_key":  contextutils.MaskAPIKey(provider.APIKey),
	})

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, contextutils.WrapErrorf(contextutils.ErrTimeout, "completion request timed out after %v", duration)
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrModelUnavailable, "completion request failed after %v: %v", duration, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	c.logger.Info(ctx, "Completion HTTP request finished", map[string]interface{}{
		"duration":    duration.String(),
		"status_code": resp.StatusCode,
		"model":       req.Model,
	})
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode), attribute.String("duration", duration.String()))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidResponse, "failed to parse completion response as JSON: %v", err)
	}

	if parsed.Error != nil {
		return nil, mapAPIError(parsed.Error)
	}

	if len(parsed.Choices) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidResponse, "no choices in completion response")
	}

	choice := parsed.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, contextutils.WrapError(contextutils.ErrContentFiltered, "completion stopped by content filter")
	}

	content := cleanJSONContent(choice.Message.Content)
	if content == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidResponse, "completion returned empty content")
	}

	var raw json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidResponse, "completion content is not valid JSON: %v", err)
	}

	span.SetAttributes(attribute.Int("content_length", len(content)))
	return raw, nil
}

// mapHTTPError translates a non-200 provider status into the generation taxonomy.
func mapHTTPError(statusCode int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	lower := strings.ToLower(detail)

	switch {
	case statusCode == http.StatusTooManyRequests:
		if strings.Contains(lower, "quota") {
			return contextutils.WrapErrorf(contextutils.ErrQuotaExceeded, "provider returned %d: %s", statusCode, detail)
		}
		return contextutils.WrapErrorf(contextutils.ErrRateLimited, "provider returned %d: %s", statusCode, detail)
	case statusCode == http.StatusPaymentRequired:
		return contextutils.WrapErrorf(contextutils.ErrQuotaExceeded, "provider returned %d: %s", statusCode, detail)
	case statusCode == http.StatusBadRequest && strings.Contains(lower, "content"):
		if strings.Contains(lower, "filter") || strings.Contains(lower, "policy") {
			return contextutils.WrapErrorf(contextutils.ErrContentFiltered, "provider returned %d: %s", statusCode, detail)
		}
		return contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "provider returned %d: %s", statusCode, detail)
	case statusCode == http.StatusNotFound, statusCode >= http.StatusInternalServerError:
		return contextutils.WrapErrorf(contextutils.ErrModelUnavailable, "provider returned %d: %s", statusCode, detail)
	default:
		return contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "provider returned %d: %s", statusCode, detail)
	}
}

// mapAPIError translates an in-body provider error into the generation taxonomy.
func mapAPIError(e *apiError) error {
	kind := strings.ToLower(e.Type + " " + e.Code)

	switch {
	case strings.Contains(kind, "content_filter"), strings.Contains(kind, "content_policy"):
		return contextutils.WrapErrorf(contextutils.ErrContentFiltered, "provider error: %s", e.Message)
	case strings.Contains(kind, "rate_limit"):
		return contextutils.WrapErrorf(contextutils.ErrRateLimited, "provider error: %s", e.Message)
	case strings.Contains(kind, "quota"), strings.Contains(kind, "insufficient"):
		return contextutils.WrapErrorf(contextutils.ErrQuotaExceeded, "provider error: %s", e.Message)
	case strings.Contains(kind, "model_not_found"), strings.Contains(kind, "unavailable"), strings.Contains(kind, "overloaded"):
		return contextutils.WrapErrorf(contextutils.ErrModelUnavailable, "provider error: %s", e.Message)
	default:
		return contextutils.WrapErrorf(contextutils.ErrGenerationFailed, "provider error: %s", e.Message)
	}
}

// cleanJSONContent strips markdown code fences some models wrap around JSON.
func cleanJSONContent(content string) string {
	cleaned := strings.TrimSpace(content)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}
