// Package middleware provides gin middleware for the generation HTTP surface.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"hirequiz/internal/observability"
	contextutils "hirequiz/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorRecoveryConfig configures panic recovery and the circuit breaker.
type ErrorRecoveryConfig struct {
	// EnableCircuitBreaker rejects requests while the error rate is high.
	EnableCircuitBreaker bool
	// CircuitBreakerThreshold is the consecutive 5xx count that opens the circuit.
	CircuitBreakerThreshold int
	// CircuitBreakerTimeout is how long the circuit stays open before probing.
	CircuitBreakerTimeout time.Duration
}

// DefaultErrorRecoveryConfig returns a default error recovery configuration
func DefaultErrorRecoveryConfig() *ErrorRecoveryConfig {
	return &ErrorRecoveryConfig{
		EnableCircuitBreaker:    false,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

type circuitBreakerState int

const (
	circuitClosed circuitBreakerState = iota
	circuitOpen
	circuitHalfOpen
)

// circuitBreaker tracks failures and manages circuit state
type circuitBreaker struct {
	mu          sync.Mutex
	state       circuitBreakerState
	failures    int
	lastFailure time.Time
	config      *ErrorRecoveryConfig
}

func newCircuitBreaker(config *ErrorRecoveryConfig) *circuitBreaker {
	return &circuitBreaker{
		state:  circuitClosed,
		config: config,
	}
}

// canExecute checks if the circuit breaker allows execution
func (cb *circuitBreaker) canExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		return true
	case circuitOpen:
		if time.Since(cb.lastFailure) > cb.config.CircuitBreakerTimeout {
			cb.state = circuitHalfOpen
			return true
		}
		return false
	case circuitHalfOpen:
		return true
	default:
		return false
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.state = circuitClosed
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.lastFailure = time.Now()

	if cb.failures >= cb.config.CircuitBreakerThreshold {
		cb.state = circuitOpen
	}
}

// ErrorRecoveryMiddleware recovers panics into structured 500 responses and
// optionally sheds load through a circuit breaker. http.ErrAbortHandler is
// re-raised so aborted connections keep net/http's behavior.
func ErrorRecoveryMiddleware(logger *observability.Logger, config *ErrorRecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultErrorRecoveryConfig()
	}

	var cb *circuitBreaker
	if config.EnableCircuitBreaker {
		cb = newCircuitBreaker(config)
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				stackTrace := string(debug.Stack())
				if logger != nil {
					logger.Error(c.Request.Context(), "Panic recovered", fmt.Errorf("panic: %v", err), map[string]interface{}{
						"path":   c.Request.URL.Path,
						"method": c.Request.Method,
						"stack":  stackTrace,
					})
				}

				if cb != nil {
					cb.recordFailure()
				}

				appErr := contextutils.NewAppError(
					contextutils.ErrorCodeInternalError,
					contextutils.SeverityFatal,
					"Internal server error",
					"A panic occurred while processing the request",
				)
				if gin.Mode() == gin.DebugMode {
					appErr.Details = fmt.Sprintf("%s\nStack trace: %s", appErr.Details, stackTrace)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToJSON())
			}
		}()

		if cb != nil && !cb.canExecute() {
			appErr := contextutils.NewAppError(
				contextutils.ErrorCodeServiceUnavailable,
				contextutils.SeverityError,
				"Service temporarily unavailable due to high error rate",
				"",
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, appErr.ToJSON())
			return
		}

		c.Next()

		if cb != nil {
			if c.Writer.Status() >= http.StatusInternalServerError {
				cb.recordFailure()
			} else {
				cb.recordSuccess()
			}
		}
	}
}
