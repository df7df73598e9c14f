package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hirequiz/internal/config"
	"hirequiz/internal/models"
	"hirequiz/internal/observability"
	contextutils "hirequiz/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// ExecuteRequest carries one built prompt pair through the retry and
// fallback machinery. Prompts are never rebuilt between attempts.
type ExecuteRequest struct {
	Mode         models.GenerationMode
	Model        string
	SystemPrompt string
	UserPrompt   string
	Schema       string
	Temperature  float64
}

// ExecuteResult is the raw validated provider output plus telemetry.
type ExecuteResult struct {
	Raw     json.RawMessage
	Model   string
	Elapsed time.Duration
}

// GenerationExecutor drives completion calls with per-attempt timeouts,
// exponential backoff and an explicit fallback-model chain.
type GenerationExecutor struct {
	client CompletionClient
	cfg    *config.Config
	logger *observability.Logger
}

// NewGenerationExecutor creates an executor bound to a completion client.
func NewGenerationExecutor(client CompletionClient, cfg *config.Config, logger *observability.Logger) *GenerationExecutor {
	return &GenerationExecutor{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// topLevelKey returns the key the provider response must carry for the mode.
func topLevelKey(mode models.GenerationMode) string {
	if mode == models.ModeSingleQuestion {
		return "question"
	}
	return "questions"
}

// Execute runs the full generate flow for one request. The requested model is
// tried first; when a model was explicitly requested and its retry budget is
// exhausted, each fallback model gets the same budget in list order. The
// returned error carries the chain of attempted models on exhaustion.
func (e *GenerationExecutor) Execute(ctx context.Context, req *ExecuteRequest) (result0 *ExecuteResult, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "execute",
		observability.AttributeModel(req.Model),
		attribute.String("generation.mode", string(req.Mode)),
	)
	defer observability.FinishSpan(span, &err)

	explicitModel := req.Model != ""
	primary := req.Model
	if primary == "" {
		primary = e.cfg.Generation.DefaultModel
	}
	if primary == "" {
		return nil, contextutils.WrapError(contextutils.ErrProviderConfigInvalid, "no model requested and no default model configured")
	}

	chain := []string{primary}
	if explicitModel {
		for _, m := range e.cfg.Generation.FallbackModels {
			if m != primary {
				chain = append(chain, m)
			}
		}
	}

	startTime := time.Now()
	attempted := make([]string, 0, len(chain))
	var firstErr error

	for _, model := range chain {
		raw, attemptErr := e.executeWithRetries(ctx, model, req)
		if attemptErr == nil {
			elapsed := time.Since(startTime)
			span.SetAttributes(attribute.String("generation.model_used", model), attribute.String("duration", elapsed.String()))
			return &ExecuteResult{Raw: raw, Model: model, Elapsed: elapsed}, nil
		}

		attempted = append(attempted, model)
		if firstErr == nil {
			firstErr = attemptErr
		}

		if !contextutils.IsRetryable(attemptErr) {
			return nil, withAttemptedModels(attemptErr, attempted)
		}
		if ctx.Err() != nil {
			break
		}

		e.logger.Warn(ctx, "Model exhausted its retry budget", map[string]interface{}{
			"model": model,
			"error": attemptErr.Error(),
		})
	}

	failure := contextutils.WrapErrorf(contextutils.ErrGenerationFailed,
		"all models failed after %v: %v", time.Since(startTime), firstErr)
	return nil, withAttemptedModels(failure, attempted)
}

// executeWithRetries runs up to 1+MaxRetries sequential attempts against one
// model. Each attempt gets a fresh timeout window; backoff doubles per attempt.
func (e *GenerationExecutor) executeWithRetries(ctx context.Context, model string, req *ExecuteRequest) (json.RawMessage, error) {
	gen := e.cfg.Generation
	var lastErr error

	for attempt := 0; attempt <= gen.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := gen.RetryDelay * time.Duration(1<<(attempt-1))
			e.logger.Debug(ctx, "Backing off before retry", map[string]interface{}{
				"model":   model,
				"attempt": attempt,
				"delay":   delay.String(),
			})
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, contextutils.WrapError(err, "generation cancelled during backoff")
			}
		}

		raw, err := e.attempt(ctx, model, req)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !contextutils.IsRetryable(err) {
			e.logger.Info(ctx, "Generation failure is not retryable", map[string]interface{}{
				"model":   model,
				"attempt": attempt,
				"error":   err.Error(),
			})
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, lastErr
		}

		e.logger.Warn(ctx, "Generation attempt failed", map[string]interface{}{
			"model":   model,
			"attempt": attempt,
			"error":   err.Error(),
		})
	}

	return nil, lastErr
}

// attempt performs a single completion call under its own timeout and checks
// the response carries the mode-appropriate top-level key.
func (e *GenerationExecutor) attempt(ctx context.Context, model string, req *ExecuteRequest) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.Generation.Timeout)
	defer cancel()

	raw, err := e.client.Complete(attemptCtx, &CompletionRequest{
		Model:        model,
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Schema:       req.Schema,
		Temperature:  req.Temperature,
		MaxTokens:    e.cfg.MaxTokensForModel(model),
	})
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrTimeout,
				"generation attempt exceeded %v", e.cfg.Generation.Timeout)
		}
		return nil, err
	}

	return validateShape(raw, topLevelKey(req.Mode))
}

// validateShape confirms the raw response is an object carrying a non-null
// value under the expected top-level key.
func validateShape(raw json.RawMessage, key string) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidResponse,
			"response is not a JSON object: %v", err)
	}

	value, ok := envelope[key]
	if !ok || string(value) == "null" {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidResponse,
			"response is missing required top-level key '%s'", key)
	}

	return raw, nil
}

// withAttemptedModels attaches the tried-model chain to an AppError.
func withAttemptedModels(err error, attempted []string) error {
	var appErr *contextutils.AppError
	if contextutils.AsError(err, &appErr) {
		appErr.AttemptedModels = append([]string(nil), attempted...)
		return appErr
	}
	return contextutils.WrapError(err, fmt.Sprintf("attempted models: %v", attempted))
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
