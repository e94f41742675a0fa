package admission

import (
	"testing"
	"time"

	"github.com/wudi/routecore/internal/router"
)

func TestBudgetRatio(t *testing.T) {
	// 20% ratio, no minimum floor.
	b := NewBudget(0.2, 0, 10*time.Second)

	for i := 0; i < 100; i++ {
		b.RecordRequest()
	}

	granted := 0
	for i := 0; i < 100; i++ {
		if b.TryAcquireRetry(router.PriorityDefault) {
			granted++
		}
	}

	// 100 requests at 20%: grants stop once retries/requests reaches the
	// ratio, i.e. after 20 grants.
	if granted != 20 {
		t.Fatalf("budget granted %d retries against 100 requests at 20%%, want 20", granted)
	}

	// Once denied, stays denied within the same window.
	if b.TryAcquireRetry(router.PriorityDefault) {
		t.Error("budget must keep denying once the ratio is hit")
	}
}

func TestBudgetMinRetriesFloor(t *testing.T) {
	// Zero ratio but a floor of 10 retries/sec over a 1s window.
	b := NewBudget(0, 10, time.Second)
	for i := 0; i < 100; i++ {
		b.RecordRequest()
	}

	granted := 0
	for i := 0; i < 20; i++ {
		if b.TryAcquireRetry(router.PriorityDefault) {
			granted++
		}
	}
	if granted != 10 {
		t.Fatalf("floor must grant exactly 10 retries, got %d", granted)
	}
}

func TestBudgetEmptyWindow(t *testing.T) {
	b := NewBudget(0.1, 0, time.Second)
	// No recorded traffic at all: first retry is allowed.
	if !b.TryAcquireRetry(router.PriorityHigh) {
		t.Error("empty window must grant the first retry")
	}
}

func TestBudgetWindowExpiry(t *testing.T) {
	b := NewBudget(0.5, 0, 100*time.Millisecond)

	b.RecordRequest()
	b.RecordRequest()
	if !b.TryAcquireRetry(router.PriorityDefault) {
		t.Fatal("expected grant under ratio")
	}
	for b.TryAcquireRetry(router.PriorityDefault) {
	}

	// After the window slides past, the budget resets.
	time.Sleep(150 * time.Millisecond)
	b.RecordRequest()
	b.RecordRequest()
	if !b.TryAcquireRetry(router.PriorityDefault) {
		t.Error("expired window must free the budget")
	}
}
