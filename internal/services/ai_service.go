// Package services implements the quiz generation pipeline: input
// sanitization, prompt building, schema-constrained completion calls with
// retry and model fallback, and strict normalization of the results.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hirequiz/internal/config"
	"hirequiz/internal/models"
	"hirequiz/internal/observability"
	contextutils "hirequiz/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// AIQuizServiceInterface defines the public generation operations.
type AIQuizServiceInterface interface {
	// GenerateQuiz builds full-quiz prompts, executes with retry and model
	// fallback, normalizes and returns exactly QuestionCount questions with
	// IDs q1..qN.
	GenerateQuiz(ctx context.Context, caller string, params *models.GenerateQuizParams) (*models.QuizGenerationResult, error)

	// GenerateQuestion runs the same pipeline for one question whose ID is
	// pinned to params.QuestionIndex, so callers can regenerate a question
	// in place without disturbing its identity.
	GenerateQuestion(ctx context.Context, caller string, params *models.GenerateQuestionParams) (*models.Question, error)

	GetConcurrencyStats() ConcurrencyStats
	Shutdown(ctx context.Context) error
}

// ConcurrencyStats provides metrics about generation request concurrency
type ConcurrencyStats struct {
	ActiveRequests    int            `json:"active_requests"`
	MaxConcurrent     int            `json:"max_concurrent"`
	TotalRequests     int64          `json:"total_requests"`
	CallerActiveCount map[string]int `json:"caller_active_count"`
	MaxPerCaller      int            `json:"max_per_caller"`
}

// AIQuizService orchestrates AI-powered question generation for technical
// recruiting quizzes using OpenAI-compatible APIs.
type AIQuizService struct {
	cfg    *config.Config
	logger *observability.Logger

	promptBuilder *PromptBuilder
	executor      *GenerationExecutor
	normalizer    *QuestionNormalizer

	// Concurrency control
	globalSemaphore chan struct{}
	maxConcurrent   int
	maxPerCaller    int

	// Per-caller concurrency tracking
	callerRequestCount map[string]int
	concurrencyMu      sync.RWMutex

	// Metrics
	totalRequests  int64
	activeRequests int
	statsMu        sync.RWMutex

	// Shutdown control
	shutdownCtx context.Context
	shutdownMu  sync.RWMutex
}

// NewAIQuizService wires the full generation pipeline. The client is injected
// so tests can substitute a stub for the provider call.
func NewAIQuizService(cfg *config.Config, client CompletionClient, logger *observability.Logger) (*AIQuizService, error) {
	promptBuilder, err := NewPromptBuilder(cfg.Generation.Locale)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create prompt builder")
	}

	normalizer, err := NewQuestionNormalizer(logger)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create question normalizer")
	}

	maxConcurrent := cfg.Server.MaxConcurrentGenerations
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultMaxConcurrentGenerations
	}
	maxPerCaller := cfg.Server.MaxPerCaller
	if maxPerCaller <= 0 {
		maxPerCaller = config.DefaultMaxPerCaller
	}

	return &AIQuizService{
		cfg:                cfg,
		logger:             logger,
		promptBuilder:      promptBuilder,
		executor:           NewGenerationExecutor(client, cfg, logger),
		normalizer:         normalizer,
		globalSemaphore:    make(chan struct{}, maxConcurrent),
		maxConcurrent:      maxConcurrent,
		maxPerCaller:       maxPerCaller,
		callerRequestCount: make(map[string]int),
		shutdownCtx:        context.Background(),
	}, nil
}

// quizResponseSchema constrains the provider output for full-quiz mode.
func quizResponseSchema() string {
	return fmt.Sprintf(`{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "items": { "oneOf": [%s, %s, %s] }
    }
  }
}`, MultipleChoiceQuestionSchema, OpenQuestionSchema, CodeSnippetQuestionSchema)
}

// questionResponseSchema constrains the provider output for single-question
// mode to the requested type's schema.
func questionResponseSchema(qType models.QuestionType) string {
	var item string
	switch qType {
	case models.MultipleChoice:
		item = MultipleChoiceQuestionSchema
	case models.OpenQuestion:
		item = OpenQuestionSchema
	default:
		item = CodeSnippetQuestionSchema
	}
	return fmt.Sprintf(`{
  "type": "object",
  "required": ["question"],
  "properties": { "question": %s }
}`, item)
}

// GenerateQuiz generates a complete quiz for a position.
func (s *AIQuizService) GenerateQuiz(ctx context.Context, caller string, params *models.GenerateQuizParams) (result0 *models.QuizGenerationResult, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "generate_quiz",
		observability.AttributeQuestionCount(params.QuestionCount),
		observability.AttributeModel(params.SpecificModel),
	)
	defer observability.FinishSpan(span, &err)

	if err := params.Validate(); err != nil {
		return nil, err
	}

	var result *models.QuizGenerationResult
	err = s.withConcurrencyControl(ctx, caller, func() error {
		systemPrompt, buildErr := s.promptBuilder.BuildSystemPrompt(models.ModeQuiz, params.QuestionCount)
		if buildErr != nil {
			return contextutils.WrapError(buildErr, "failed to build system prompt")
		}
		userPrompt, buildErr := s.promptBuilder.BuildQuizUserPrompt(params)
		if buildErr != nil {
			return contextutils.WrapError(buildErr, "failed to build user prompt")
		}

		execResult, execErr := s.executor.Execute(ctx, &ExecuteRequest{
			Mode:         models.ModeQuiz,
			Model:        params.SpecificModel,
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			Schema:       quizResponseSchema(),
			Temperature:  config.DefaultTemperature,
		})
		if execErr != nil {
			return execErr
		}

		questions, normErr := s.normalizer.NormalizeQuiz(ctx, execResult.Raw, params.QuestionCount)
		if normErr != nil {
			return normErr
		}

		s.logger.Info(ctx, "Quiz generated", map[string]interface{}{
			"caller":         caller,
			"question_count": len(questions),
			"model":          execResult.Model,
			"elapsed":        execResult.Elapsed.String(),
		})

		result = &models.QuizGenerationResult{
			Questions: questions,
			Model:     execResult.Model,
			ElapsedMs: execResult.Elapsed.Milliseconds(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("generation.model_used", result.Model))
	return result, nil
}

// GenerateQuestion generates a single question for a position.
func (s *AIQuizService) GenerateQuestion(ctx context.Context, caller string, params *models.GenerateQuestionParams) (result0 *models.Question, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "generate_question",
		observability.AttributeQuestionType(string(params.QuestionType)),
		attribute.Int("question_index", params.QuestionIndex),
		observability.AttributeModel(params.SpecificModel),
	)
	defer observability.FinishSpan(span, &err)

	if err := params.Validate(); err != nil {
		return nil, err
	}

	var question *models.Question
	err = s.withConcurrencyControl(ctx, caller, func() error {
		systemPrompt, buildErr := s.promptBuilder.BuildSystemPrompt(models.ModeSingleQuestion, params.QuestionIndex)
		if buildErr != nil {
			return contextutils.WrapError(buildErr, "failed to build system prompt")
		}
		userPrompt, buildErr := s.promptBuilder.BuildQuestionUserPrompt(params)
		if buildErr != nil {
			return contextutils.WrapError(buildErr, "failed to build user prompt")
		}

		execResult, execErr := s.executor.Execute(ctx, &ExecuteRequest{
			Mode:         models.ModeSingleQuestion,
			Model:        params.SpecificModel,
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			Schema:       questionResponseSchema(params.QuestionType),
			Temperature:  config.DefaultTemperature,
		})
		if execErr != nil {
			return execErr
		}

		q, normErr := s.normalizer.NormalizeQuestion(ctx, execResult.Raw, params.QuestionIndex)
		if normErr != nil {
			return normErr
		}
		if q.Type != params.QuestionType {
			return contextutils.WrapErrorf(contextutils.ErrValidationFailed,
				"requested question type %s but got %s", params.QuestionType, q.Type)
		}

		s.logger.Info(ctx, "Question generated", map[string]interface{}{
			"caller":  caller,
			"id":      q.ID,
			"type":    string(q.Type),
			"model":   execResult.Model,
			"elapsed": execResult.Elapsed.String(),
		})

		question = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	return question, nil
}

// withConcurrencyControl wraps a generation operation with concurrency limits
func (s *AIQuizService) withConcurrencyControl(ctx context.Context, caller string, operation func() error) error {
	if s.isShutdown() {
		return contextutils.WrapError(contextutils.ErrServiceUnavailable, "service is shutting down")
	}

	if err := s.acquireCallerSlot(ctx, caller); err != nil {
		return err
	}
	defer s.releaseCallerSlot(ctx, caller)

	if err := s.acquireGlobalSlot(ctx); err != nil {
		return err
	}

	s.statsMu.Lock()
	s.activeRequests++
	s.totalRequests++
	s.statsMu.Unlock()

	defer s.releaseGlobalSlot(ctx)

	return operation()
}

// acquireGlobalSlot attempts to acquire a global concurrency slot
func (s *AIQuizService) acquireGlobalSlot(ctx context.Context) error {
	select {
	case s.globalSemaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return contextutils.WrapErrorf(contextutils.ErrTimeout, "request cancelled while waiting for a generation slot: %v", ctx.Err())
	default:
		return contextutils.WrapErrorf(contextutils.ErrServiceUnavailable, "generation service at capacity (%d concurrent requests), please try again", s.maxConcurrent)
	}
}

// releaseGlobalSlot releases a global concurrency slot
func (s *AIQuizService) releaseGlobalSlot(ctx context.Context) {
	select {
	case <-s.globalSemaphore:
		s.statsMu.Lock()
		if s.activeRequests > 0 {
			s.activeRequests--
		}
		s.statsMu.Unlock()
	default:
		s.logger.Warn(ctx, "Attempted to release a generation slot but none were acquired", nil)
	}
}

// acquireCallerSlot acquires a caller-specific concurrency slot
func (s *AIQuizService) acquireCallerSlot(_ context.Context, caller string) error {
	s.concurrencyMu.Lock()
	defer s.concurrencyMu.Unlock()

	currentCount := s.callerRequestCount[caller]
	if currentCount >= s.maxPerCaller {
		return contextutils.WrapErrorf(contextutils.ErrServiceUnavailable, "caller concurrency limit exceeded for %s: %d/%d", caller, currentCount, s.maxPerCaller)
	}

	s.callerRequestCount[caller] = currentCount + 1
	return nil
}

// releaseCallerSlot releases a caller-specific concurrency slot
func (s *AIQuizService) releaseCallerSlot(ctx context.Context, caller string) {
	s.concurrencyMu.Lock()
	defer s.concurrencyMu.Unlock()

	currentCount := s.callerRequestCount[caller]
	if currentCount > 0 {
		s.callerRequestCount[caller] = currentCount - 1
		if s.callerRequestCount[caller] == 0 {
			delete(s.callerRequestCount, caller)
		}
	} else {
		s.logger.Warn(ctx, "Attempted to release a caller slot but none were acquired", map[string]interface{}{
			"caller": caller,
		})
	}
}

// GetConcurrencyStats returns current concurrency metrics
func (s *AIQuizService) GetConcurrencyStats() ConcurrencyStats {
	s.statsMu.RLock()
	active := s.activeRequests
	total := s.totalRequests
	s.statsMu.RUnlock()

	s.concurrencyMu.RLock()
	callerCounts := make(map[string]int, len(s.callerRequestCount))
	for caller, count := range s.callerRequestCount {
		callerCounts[caller] = count
	}
	s.concurrencyMu.RUnlock()

	return ConcurrencyStats{
		ActiveRequests:    active,
		MaxConcurrent:     s.maxConcurrent,
		TotalRequests:     total,
		CallerActiveCount: callerCounts,
		MaxPerCaller:      s.maxPerCaller,
	}
}

// Shutdown gracefully shuts down the service, waiting for active requests to
// complete up to the shutdown timeout.
func (s *AIQuizService) Shutdown(ctx context.Context) error {
	// Flip the shutdown flag before draining so no new requests are admitted.
	s.shutdownMu.Lock()
	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	s.shutdownCtx = shutdownCtx
	s.shutdownMu.Unlock()

	timeout := config.GenerationShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	ticker := time.NewTicker(config.ShutdownPollInterval)
	defer ticker.Stop()

	for i := 0; i < int(timeout/config.ShutdownPollInterval); i++ {
		s.statsMu.RLock()
		active := s.activeRequests
		s.statsMu.RUnlock()

		if active == 0 {
			break
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.concurrencyMu.Lock()
	s.callerRequestCount = make(map[string]int)
	s.concurrencyMu.Unlock()

	s.logger.Info(ctx, "Quiz generation service shutdown completed", nil)
	return nil
}

// isShutdown checks if the service is shutting down
func (s *AIQuizService) isShutdown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	select {
	case <-s.shutdownCtx.Done():
		return true
	default:
		return false
	}
}
