package infra

import (
	"errors"
	"fmt"
	"time"

	"cobrofacil/internal/metrics"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while a collaborator's breaker refuses calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds tunable parameters.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // requests allowed through while half-open
	Interval         time.Duration // closed-state window after which counts reset
	Timeout          time.Duration // open → half-open
	FailureThreshold uint32        // consecutive failures to trip
}

// DefaultCBConfig returns the defaults used for the external collaborators.
func DefaultCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreaker wraps gobreaker with logging and state metrics.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(cfg CircuitBreakerConfig, m *metrics.Metrics) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	threshold := cfg.FailureThreshold
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			m.SetCircuitBreakerState(name, stateValue(to))
		},
	}
	m.SetCircuitBreakerState(cfg.Name, 0)
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. Open and half-open saturation both
// surface as ErrCircuitOpen.
func (c *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", c.cb.Name(), ErrCircuitOpen)
	}
	return res, err
}

// State returns "closed", "half-open" or "open" (for health endpoints / logs).
func (c *CircuitBreaker) State() string { return c.cb.State().String() }

func (c *CircuitBreaker) Name() string { return c.cb.Name() }

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
