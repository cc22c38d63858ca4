package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSubscriptionAccepted is a no-op.
func (n *NoopRecorder) IncSubscriptionAccepted() {}

// IncSubscriptionRejected is a no-op.
func (n *NoopRecorder) IncSubscriptionRejected() {}

// IncSubscriptionFailed is a no-op.
func (n *NoopRecorder) IncSubscriptionFailed(stage string) {}

// IncConfirmationCompleted is a no-op.
func (n *NoopRecorder) IncConfirmationCompleted() {}

// IncConfirmationRejected is a no-op.
func (n *NoopRecorder) IncConfirmationRejected() {}

// ObserveDispatchDuration is a no-op.
func (n *NoopRecorder) ObserveDispatchDuration(duration time.Duration) {}
