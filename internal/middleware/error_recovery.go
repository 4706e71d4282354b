// Package middleware provides HTTP middleware for panic recovery and
// overload protection.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"translatorapp/internal/observability"
	contextutils "translatorapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorRecoveryConfig configures error recovery behavior
type ErrorRecoveryConfig struct {
	// EnableCircuitBreaker enables the circuit breaker for the inference path
	EnableCircuitBreaker bool
	// CircuitBreakerThreshold specifies failure threshold for circuit breaker
	CircuitBreakerThreshold int
	// CircuitBreakerTimeout specifies how long to wait before retrying after circuit opens
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

// circuitBreakerState represents the state of a circuit breaker
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

// recordResult updates circuit state from the response status.
func (cb *circuitBreaker) recordResult(statusCode int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if statusCode >= 500 {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.config.CircuitBreakerThreshold {
			cb.state = circuitOpen
		}
		return
	}
	if cb.state == circuitHalfOpen {
		cb.failures = 0
		cb.state = circuitClosed
	}
}

// ErrorRecoveryMiddleware recovers from handler panics with a structured
// error response, optionally guarding the service with a circuit breaker.
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
			if r := recover(); r != nil {
				stackTrace := string(debug.Stack())
				if logger != nil {
					logger.Error(c.Request.Context(), "Panic recovered", nil, map[string]interface{}{
						"panic": fmt.Sprintf("%v", r),
						"stack": stackTrace,
					})
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

				c.JSON(http.StatusInternalServerError, appErr.ToJSON())
				c.Abort()
			}
		}()

		if cb != nil && !cb.canExecute() {
			appErr := contextutils.NewAppError(
				contextutils.ErrorCodeServiceUnavailable,
				contextutils.SeverityError,
				"Service temporarily unavailable due to high error rate",
				"",
			)
			c.JSON(http.StatusServiceUnavailable, appErr.ToJSON())
			c.Abort()
			return
		}

		c.Next()

		if cb != nil {
			cb.recordResult(c.Writer.Status())
		}
	}
}
