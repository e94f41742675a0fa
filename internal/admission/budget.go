// Package admission gates retry traffic so that retries cannot amplify an
// outage on an already-failing upstream cluster. Gates are shared by every
// request targeting a cluster and are safe for concurrent use.
package admission

import (
	"sync"
	"time"

	"github.com/wudi/routecore/internal/router"
)

const budgetBuckets = 10

type bucketData struct {
	requests int64
	retries  int64
}

// Budget grants retries while the ratio of retries to total requests over a
// sliding window stays under a configured bound, with a minimum floor of
// retries per second so a quiet cluster can still retry.
type Budget struct {
	ratio          float64
	minRetriesPerS int
	window         time.Duration
	bucketDur      time.Duration

	mu      sync.Mutex
	buckets [budgetBuckets]bucketData
	idx     int
	lastAdv time.Time
}

// NewBudget creates a retry budget.
// ratio: max fraction of requests that may be retries (0.0-1.0).
// minRetries: always grant at least this many retries per second.
// window: sliding window duration (default 10s).
func NewBudget(ratio float64, minRetries int, window time.Duration) *Budget {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &Budget{
		ratio:          ratio,
		minRetriesPerS: minRetries,
		window:         window,
		bucketDur:      window / budgetBuckets,
		lastAdv:        time.Now(),
	}
}

// RecordRequest records an incoming request against the window.
func (b *Budget) RecordRequest() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	b.buckets[b.idx].requests++
}

// TryAcquireRetry grants a retry slot if the budget permits, recording the
// retry when granted. Priority does not bypass the budget; the ratio bounds
// total retry amplification regardless of traffic class.
func (b *Budget) TryAcquireRetry(router.Priority) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()

	if !b.allow() {
		return false
	}
	b.buckets[b.idx].retries++
	return true
}

// allow checks the window. Caller holds b.mu.
func (b *Budget) allow() bool {
	var totalReqs, totalRetries int64
	for i := 0; i < budgetBuckets; i++ {
		totalReqs += b.buckets[i].requests
		totalRetries += b.buckets[i].retries
	}

	windowSec := b.window.Seconds()
	if windowSec > 0 && float64(totalRetries)/windowSec < float64(b.minRetriesPerS) {
		return true
	}

	if totalReqs == 0 {
		return true
	}
	return float64(totalRetries)/float64(totalReqs) < b.ratio
}

// advance moves the window forward, zeroing expired buckets. Caller holds
// b.mu.
func (b *Budget) advance() {
	now := time.Now()
	elapsed := now.Sub(b.lastAdv)
	if elapsed < b.bucketDur {
		return
	}

	steps := int(elapsed / b.bucketDur)
	if steps > budgetBuckets {
		steps = budgetBuckets
	}
	for i := 0; i < steps; i++ {
		b.idx = (b.idx + 1) % budgetBuckets
		b.buckets[b.idx] = bucketData{}
	}
	b.lastAdv = now
}
