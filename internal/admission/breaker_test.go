package admission

import (
	"testing"
	"time"

	"github.com/wudi/routecore/internal/router"
)

func TestBreakerDeniesWhenOpen(t *testing.T) {
	b := NewBreaker("backend", 2, 50*time.Millisecond)

	if !b.TryAcquireRetry(router.PriorityDefault) {
		t.Fatal("closed circuit must grant retries")
	}

	b.RecordAttempt(true)
	b.RecordAttempt(true)

	if b.TryAcquireRetry(router.PriorityDefault) {
		t.Error("open circuit must deny default-priority retries")
	}
	if b.TryAcquireRetry(router.PriorityHigh) {
		t.Error("open circuit must deny high-priority retries")
	}
}

func TestBreakerHalfOpenProbes(t *testing.T) {
	b := NewBreaker("backend", 2, 50*time.Millisecond)
	b.RecordAttempt(true)
	b.RecordAttempt(true)

	time.Sleep(60 * time.Millisecond)

	// Half-open: only high priority may probe with retries.
	if b.TryAcquireRetry(router.PriorityDefault) {
		t.Error("half-open circuit must deny default-priority retries")
	}
	if !b.TryAcquireRetry(router.PriorityHigh) {
		t.Error("half-open circuit must admit high-priority probes")
	}

	// A successful probe closes the circuit again.
	b.RecordAttempt(false)
	if !b.TryAcquireRetry(router.PriorityDefault) {
		t.Error("recovered circuit must grant retries")
	}
}

func TestBreakerSuccessKeepsClosed(t *testing.T) {
	b := NewBreaker("backend", 3, time.Second)

	for i := 0; i < 10; i++ {
		b.RecordAttempt(false)
	}
	b.RecordAttempt(true)
	b.RecordAttempt(true)

	// Two failures under a threshold of three: still closed.
	if !b.TryAcquireRetry(router.PriorityDefault) {
		t.Error("circuit under the failure threshold must stay closed")
	}
}
