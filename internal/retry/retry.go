// Package retry decides whether and when a failed upstream attempt is
// retried. One State serves one logical request; the routing table supplies
// its policy, the admission gate protects the destination cluster, and the
// scheduler runs the retry callback off the decision stack.
package retry

import (
	"time"

	"github.com/wudi/routecore/internal/router"
)

// Status is the outcome of a retry decision.
type Status int

const (
	// No: the outcome is not eligible or the budget is exhausted. Final.
	No Status = iota
	// NoOverflow: eligible with budget remaining, but the admission gate
	// denied the slot. Final, recorded distinctly for diagnostics.
	NoOverflow
	// Yes: a retry is scheduled; the callback fires exactly once.
	Yes
)

func (s Status) String() string {
	switch s {
	case Yes:
		return "yes"
	case NoOverflow:
		return "no_overflow"
	default:
		return "no"
	}
}

// ResetReason describes why an upstream attempt terminated without a
// complete response.
type ResetReason int

const (
	ResetNone ResetReason = iota
	ResetConnectFailure
	ResetRefusedStream
	ResetConnectionTermination
	ResetLocalReset
	ResetOverflow
)

// Admission grants or denies retry slots for a destination cluster. It is
// consulted exactly once per eligible decision and must be safe for
// concurrent calls across requests.
type Admission interface {
	TryAcquireRetry(priority router.Priority) bool
}

// Scheduler runs a callback once after a delay, never on the calling stack.
type Scheduler interface {
	Schedule(delay time.Duration, f func())
}

// TimerScheduler schedules callbacks on the runtime timer.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(delay time.Duration, f func()) {
	time.AfterFunc(delay, f)
}
