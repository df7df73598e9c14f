package handlers

import (
	"net/http"

	"hirequiz/internal/config"
	"hirequiz/internal/models"
	"hirequiz/internal/observability"
	"hirequiz/internal/services"
	contextutils "hirequiz/internal/utils"
	"hirequiz/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// GenerationHandler handles quiz and question generation HTTP requests
type GenerationHandler struct {
	service services.AIQuizServiceInterface
	cfg     *config.Config
	logger  *observability.Logger
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(
	service services.AIQuizServiceInterface,
	cfg *config.Config,
	logger *observability.Logger,
) *GenerationHandler {
	return &GenerationHandler{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}
}

// locale resolves the response language: explicit query parameter first, then
// the configured generation locale.
func (h *GenerationHandler) locale(c *gin.Context) string {
	if l := c.Query("locale"); l != "" {
		return string(contextutils.ParseLocale(l))
	}
	return h.cfg.Generation.Locale
}

// callerID identifies the caller for per-caller concurrency limits. API key
// when present, client IP otherwise.
func callerID(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	return c.ClientIP()
}

// GenerateQuiz handles POST /v1/quizzes/generate
func (h *GenerationHandler) GenerateQuiz(c *gin.Context) {
	requestID := uuid.NewString()
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "generate_quiz",
		observability.AttributeRequestID(requestID),
	)
	defer observability.FinishSpan(span, nil)

	var params models.GenerateQuizParams
	if err := c.ShouldBindJSON(&params); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		), h.locale(c))
		return
	}

	span.SetAttributes(
		observability.AttributeQuestionCount(params.QuestionCount),
		attribute.Int("difficulty", params.Difficulty),
	)

	caller := callerID(c)
	result, err := h.service.GenerateQuiz(ctx, caller, &params)
	if err != nil {
		h.logger.Error(ctx, "Quiz generation failed", err, map[string]interface{}{
			"request_id":     requestID,
			"caller":         caller,
			"position_title": params.Position.Title,
			"question_count": params.QuestionCount,
		})
		HandleAppError(c, err, h.locale(c))
		return
	}

	c.Header("X-Request-ID", requestID)
	c.JSON(http.StatusOK, result)
}

// GenerateQuestion handles POST /v1/questions/generate
func (h *GenerationHandler) GenerateQuestion(c *gin.Context) {
	requestID := uuid.NewString()
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "generate_question",
		observability.AttributeRequestID(requestID),
	)
	defer observability.FinishSpan(span, nil)

	var params models.GenerateQuestionParams
	if err := c.ShouldBindJSON(&params); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		), h.locale(c))
		return
	}

	span.SetAttributes(
		observability.AttributeQuestionType(string(params.QuestionType)),
		attribute.Int("question_index", params.QuestionIndex),
	)

	caller := callerID(c)
	question, err := h.service.GenerateQuestion(ctx, caller, &params)
	if err != nil {
		h.logger.Error(ctx, "Question generation failed", err, map[string]interface{}{
			"request_id":     requestID,
			"caller":         caller,
			"question_type":  string(params.QuestionType),
			"question_index": params.QuestionIndex,
		})
		HandleAppError(c, err, h.locale(c))
		return
	}

	c.Header("X-Request-ID", requestID)
	c.JSON(http.StatusOK, gin.H{"question": question})
}

// Health handles GET /v1/health
func (h *GenerationHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
	})
}

// Stats handles GET /v1/stats
func (h *GenerationHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetConcurrencyStats())
}
