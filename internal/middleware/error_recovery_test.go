package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hirequiz/internal/config"
	"hirequiz/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRecoveryTestRouter(cfg *ErrorRecoveryConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	router := gin.New()
	router.Use(ErrorRecoveryMiddleware(logger, cfg))
	router.GET("/panic", func(_ *gin.Context) {
		panic("boom")
	})
	router.GET("/panic-error", func(_ *gin.Context) {
		panic(assert.AnError)
	})
	router.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed"})
	})
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestErrorRecoveryMiddleware_RecoversPanics(t *testing.T) {
	router := newRecoveryTestRouter(nil)

	for _, path := range []string{"/panic", "/panic-error"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR", path)
	}
}

func TestErrorRecoveryMiddleware_PassesThroughNormalRequests(t *testing.T) {
	router := newRecoveryTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorRecoveryMiddleware_CircuitBreaker(t *testing.T) {
	router := newRecoveryTestRouter(&ErrorRecoveryConfig{
		EnableCircuitBreaker:    true,
		CircuitBreakerThreshold: 2,
		CircuitBreakerTimeout:   50 * time.Millisecond,
	})

	// Two consecutive 5xx responses open the circuit.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")

	// After the timeout the circuit half-opens; a success closes it again.
	time.Sleep(60 * time.Millisecond)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	cb := newCircuitBreaker(&ErrorRecoveryConfig{
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   time.Hour,
	})

	assert.True(t, cb.canExecute())

	cb.recordFailure()
	cb.recordFailure()
	assert.True(t, cb.canExecute())

	cb.recordFailure()
	assert.False(t, cb.canExecute())

	cb.recordSuccess()
	assert.True(t, cb.canExecute())
}
