package admission

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/wudi/routecore/internal/logging"
	"github.com/wudi/routecore/internal/router"
)

var errAttemptFailed = errors.New("upstream attempt failed")

// Breaker denies retry slots while the destination cluster's circuit is
// open. While half-open, only high-priority traffic may probe with retries.
// Attempt outcomes are fed in by the dispatch path via RecordAttempt.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// NewBreaker creates a breaker-backed admission gate for one cluster.
// The circuit opens after consecutiveFailures failed attempts and probes
// again after cooldown.
func NewBreaker(cluster string, consecutiveFailures uint32, cooldown time.Duration) *Breaker {
	if consecutiveFailures == 0 {
		consecutiveFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    cluster,
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info("retry admission circuit state changed",
				zap.String("cluster", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

// RecordAttempt feeds one upstream attempt outcome into the circuit.
func (b *Breaker) RecordAttempt(failed bool) {
	// Execute returns the circuit error when open; the outcome still
	// needs no handling here.
	_, _ = b.cb.Execute(func() (struct{}, error) {
		if failed {
			return struct{}{}, errAttemptFailed
		}
		return struct{}{}, nil
	})
}

// TryAcquireRetry grants a retry slot unless the circuit is open. Half-open
// circuits admit only high-priority retries as probes.
func (b *Breaker) TryAcquireRetry(priority router.Priority) bool {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return false
	case gobreaker.StateHalfOpen:
		return priority == router.PriorityHigh
	default:
		return true
	}
}
