package patterns

import (
	"errors"
	"fmt"
	"time"

	"github.com/giftbloom/storefront/internal/metrics"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ErrBackendUnavailable wraps breaker-open conditions so callers can map
// them to a single user-facing "service unavailable" message.
var ErrBackendUnavailable = errors.New("commerce backend unavailable")

// CircuitBreaker guards one concern of the commerce backend (cart, catalog,
// orders, coupons, seller) and reports its state to Prometheus.
type CircuitBreaker struct {
	cb      *gobreaker.CircuitBreaker
	name    string
	service string
}

// NewCircuitBreaker creates a circuit breaker with Prometheus metrics.
func NewCircuitBreaker(name, service string) *CircuitBreaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // Max requests allowed in half-open state
		Interval:    15 * time.Second, // Window to track failures
		Timeout:     30 * time.Second, // Time to wait before half-open
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			// Trip if 60% or more requests fail and at least 3 requests have been made
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			state := float64(0)
			switch to {
			case gobreaker.StateOpen:
				state = 1
			case gobreaker.StateHalfOpen:
				state = 2
			case gobreaker.StateClosed:
				state = 0
			}
			metrics.CircuitBreakerState.WithLabelValues(service, cbName).Set(state)

			log.WithFields(log.Fields{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("Circuit breaker state changed")
		},
	})

	// Initialize the metric with the current state (closed by default)
	metrics.CircuitBreakerState.WithLabelValues(service, name).Set(0)

	return &CircuitBreaker{
		cb:      cb,
		name:    name,
		service: service,
	}
}

// Do runs fn through the circuit breaker, counting failures and mapping the
// breaker's own errors onto ErrBackendUnavailable.
func (cb *CircuitBreaker) Do(fn func() error) error {
	_, err := cb.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.service, cb.name).Inc()
	}
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("circuit %s is open: %w", cb.name, ErrBackendUnavailable)
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit %s: too many half-open requests: %w", cb.name, ErrBackendUnavailable)
	}
	return err
}

// Name returns the circuit name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() string {
	return cb.cb.State().String()
}

// StateValue returns a numeric value for the state (0=closed, 1=open, 2=half-open).
func (cb *CircuitBreaker) StateValue() int {
	switch cb.cb.State() {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return -1
	}
}
