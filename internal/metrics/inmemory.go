package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SubscriptionsAccepted       uint64
	SubscriptionsRejected       uint64
	SubscriptionsFailedStorage  uint64
	SubscriptionsFailedToken    uint64
	SubscriptionsFailedDispatch uint64
	ConfirmationsCompleted      uint64
	ConfirmationsRejected       uint64
	DispatchDurationCount       uint64
	DispatchDurationTotalNs     int64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	subscriptionsAccepted       uint64
	subscriptionsRejected       uint64
	subscriptionsFailedStorage  uint64
	subscriptionsFailedToken    uint64
	subscriptionsFailedDispatch uint64
	confirmationsCompleted      uint64
	confirmationsRejected       uint64
	dispatchDurationCount       uint64
	dispatchDurationTotalNs     int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		SubscriptionsAccepted:       atomic.LoadUint64(&m.subscriptionsAccepted),
		SubscriptionsRejected:       atomic.LoadUint64(&m.subscriptionsRejected),
		SubscriptionsFailedStorage:  atomic.LoadUint64(&m.subscriptionsFailedStorage),
		SubscriptionsFailedToken:    atomic.LoadUint64(&m.subscriptionsFailedToken),
		SubscriptionsFailedDispatch: atomic.LoadUint64(&m.subscriptionsFailedDispatch),
		ConfirmationsCompleted:      atomic.LoadUint64(&m.confirmationsCompleted),
		ConfirmationsRejected:       atomic.LoadUint64(&m.confirmationsRejected),
		DispatchDurationCount:       atomic.LoadUint64(&m.dispatchDurationCount),
		DispatchDurationTotalNs:     atomic.LoadInt64(&m.dispatchDurationTotalNs),
	}
}

// IncSubscriptionAccepted increments the accepted counter.
func (m *InMemoryRecorder) IncSubscriptionAccepted() {
	atomic.AddUint64(&m.subscriptionsAccepted, 1)
}

// IncSubscriptionRejected increments the validation-rejected counter.
func (m *InMemoryRecorder) IncSubscriptionRejected() {
	atomic.AddUint64(&m.subscriptionsRejected, 1)
}

// IncSubscriptionFailed increments the failure counter for a stage.
func (m *InMemoryRecorder) IncSubscriptionFailed(stage string) {
	switch stage {
	case StageStorage:
		atomic.AddUint64(&m.subscriptionsFailedStorage, 1)
	case StageToken:
		atomic.AddUint64(&m.subscriptionsFailedToken, 1)
	case StageDispatch:
		atomic.AddUint64(&m.subscriptionsFailedDispatch, 1)
	}
}

// IncConfirmationCompleted increments the confirmation counter.
func (m *InMemoryRecorder) IncConfirmationCompleted() {
	atomic.AddUint64(&m.confirmationsCompleted, 1)
}

// IncConfirmationRejected increments the unknown-token counter.
func (m *InMemoryRecorder) IncConfirmationRejected() {
	atomic.AddUint64(&m.confirmationsRejected, 1)
}

// ObserveDispatchDuration records one outbound email send duration.
func (m *InMemoryRecorder) ObserveDispatchDuration(duration time.Duration) {
	atomic.AddUint64(&m.dispatchDurationCount, 1)
	atomic.AddInt64(&m.dispatchDurationTotalNs, duration.Nanoseconds())
}
