package handlers

import (
	"net/http"
	"time"

	"hirequiz/internal/config"
	"hirequiz/internal/middleware"
	"hirequiz/internal/observability"
	"hirequiz/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter builds the gin engine with the full middleware stack and the
// generation routes.
func NewRouter(
	cfg *config.Config,
	service services.AIQuizServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false

	router.Use(middleware.ErrorRecoveryMiddleware(logger, nil))

	// Request logging with level keyed to the response status.
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.duration":    time.Since(start).String(),
			"http.client_ip":   c.ClientIP(),
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= http.StatusBadRequest:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	handler := NewGenerationHandler(service, cfg, logger)

	// Liveness endpoint stays outside tracing middleware.
	router.GET("/health", handler.Health)

	router.Use(otelgin.Middleware("hirequiz"))

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-API-Key", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/v1")
	{
		v1.POST("/quizzes/generate", handler.GenerateQuiz)
		v1.POST("/questions/generate", handler.GenerateQuestion)
		v1.GET("/health", handler.Health)
		v1.GET("/stats", handler.Stats)
	}

	return router
}
