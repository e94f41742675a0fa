package retry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"github.com/wudi/routecore/internal/logging"
	"github.com/wudi/routecore/internal/metrics"
	"github.com/wudi/routecore/internal/router"
)

// Request headers that widen the route retry policy for a single request.
// Consumed (and stripped) when the state is created.
const (
	HeaderRetryOn    = "X-Gateway-Retry-On"
	HeaderMaxRetries = "X-Gateway-Max-Retries"
)

// retriable4xxStatuses is the fixed allow-list for the retriable-4xx
// condition.
var retriable4xxStatuses = map[int]bool{
	http.StatusConflict: true,
}

const grpcConditions = router.RetryOnGRPCCancelled |
	router.RetryOnGRPCDeadlineExceeded |
	router.RetryOnGRPCResourceExhausted

type machineState int

const (
	stateIdle machineState = iota
	stateEvaluating
	stateExhausted
	stateNotEligible
	stateScheduled
)

// State is the per-request retry state machine. It is exclusively owned by
// one logical request and is not safe for concurrent use; the scheduled
// callback re-enters the dispatch path on the scheduler's goroutine, which
// becomes the owner for the next attempt.
type State struct {
	retryOn          uint32
	retriesRemaining uint32
	priority         router.Priority
	isGRPC           bool

	admission Admission
	sched     Scheduler
	collector *metrics.Collector

	bo        *backoff.ExponentialBackOff
	lastDelay time.Duration
	attempt   uint32
	machine   machineState
}

// NewState creates retry state for one request. The route policy may be
// widened by the request's X-Gateway-Retry-On / X-Gateway-Max-Retries
// headers, which are stripped here so they never reach the upstream.
// admission, sched, and collector may be nil; a nil scheduler uses the
// runtime timer.
func NewState(policy router.RetryPolicy, priority router.Priority, req *http.Request,
	admission Admission, sched Scheduler, collector *metrics.Collector) *State {

	retryOn := policy.RetryOn()
	retries := policy.NumRetries()
	isGRPC := false

	if req != nil {
		if v := req.Header.Get(HeaderRetryOn); v != "" {
			retryOn |= router.ParseRetryOn(v)
			req.Header.Del(HeaderRetryOn)
		}
		if v := req.Header.Get(HeaderMaxRetries); v != "" {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				retries = uint32(n)
			}
			req.Header.Del(HeaderMaxRetries)
		}
		isGRPC = IsGRPC(req.Header)
	}

	if sched == nil {
		sched = TimerScheduler{}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 25 * time.Millisecond
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.25
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 0
	bo.Reset()

	return &State{
		retryOn:          retryOn,
		retriesRemaining: retries,
		priority:         priority,
		isGRPC:           isGRPC,
		admission:        admission,
		sched:            sched,
		collector:        collector,
		bo:               bo,
	}
}

// Enabled reports whether any retry condition is in place for the request.
func (s *State) Enabled() bool { return s.retryOn != 0 }

// ShouldRetry evaluates an upstream outcome: resp carries the response when
// one arrived, reason the reset when the attempt never completed. When both
// are set the reset wins. On Yes, onRetry is invoked exactly once after a
// backoff delay, never inline. On No and NoOverflow, onRetry is never
// invoked and this state is finished.
func (s *State) ShouldRetry(resp *http.Response, reason ResetReason, onRetry func()) Status {
	if s.machine != stateIdle {
		return No
	}
	s.machine = stateEvaluating

	if !s.wouldRetry(resp, reason) {
		s.machine = stateNotEligible
		s.collector.RecordRetryDecision(No.String())
		return No
	}

	if s.retriesRemaining == 0 {
		s.machine = stateExhausted
		s.collector.RecordRetryDecision(No.String())
		return No
	}
	s.retriesRemaining--

	if s.admission != nil && !s.admission.TryAcquireRetry(s.priority) {
		s.machine = stateNotEligible
		s.collector.RecordRetryDecision(NoOverflow.String())
		return NoOverflow
	}

	s.attempt++
	delay := s.bo.NextBackOff()
	if delay < s.lastDelay {
		delay = s.lastDelay
	}
	s.lastDelay = delay

	s.machine = stateScheduled
	logging.Debug("retry scheduled",
		zap.Uint32("attempt", s.attempt),
		zap.Duration("delay", delay),
		zap.Uint32("retries_remaining", s.retriesRemaining))

	s.sched.Schedule(delay, func() {
		s.machine = stateIdle
		onRetry()
	})

	s.collector.RecordRetryDecision(Yes.String())
	return Yes
}

// wouldRetry checks the outcome against the retry-on conditions. A reset
// reason takes precedence over response headers: it means the response
// never completed.
func (s *State) wouldRetry(resp *http.Response, reason ResetReason) bool {
	if reason != ResetNone {
		if reason == ResetOverflow {
			return false
		}
		if s.retryOn&router.RetryOn5xx != 0 {
			return true
		}
		if s.retryOn&router.RetryOnConnectFailure != 0 && reason == ResetConnectFailure {
			return true
		}
		if s.retryOn&router.RetryOnRefusedStream != 0 && reason == ResetRefusedStream {
			return true
		}
		return false
	}

	if resp == nil {
		return false
	}

	if s.retryOn&router.RetryOn5xx != 0 && resp.StatusCode >= http.StatusInternalServerError {
		return true
	}
	if s.retryOn&router.RetryOnRetriable4xx != 0 && retriable4xxStatuses[resp.StatusCode] {
		return true
	}

	if s.isGRPC && s.retryOn&grpcConditions != 0 {
		code, ok := GRPCStatus(resp)
		if !ok {
			return false
		}
		switch code {
		case codes.Canceled:
			return s.retryOn&router.RetryOnGRPCCancelled != 0
		case codes.DeadlineExceeded:
			return s.retryOn&router.RetryOnGRPCDeadlineExceeded != 0
		case codes.ResourceExhausted:
			return s.retryOn&router.RetryOnGRPCResourceExhausted != 0
		}
	}

	return false
}
