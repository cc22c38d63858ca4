// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Dispatch failure stages recorded by IncSubscriptionFailed.
const (
	StageStorage  = "storage"
	StageToken    = "token"
	StageDispatch = "dispatch"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Subscription workflow metrics
	IncSubscriptionAccepted()
	IncSubscriptionRejected()            // validation failures
	IncSubscriptionFailed(stage string)  // stage: "storage", "token", "dispatch"

	// Confirmation flow metrics
	IncConfirmationCompleted()
	IncConfirmationRejected() // unknown token

	// Outbound email metrics
	ObserveDispatchDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
