package handler

import (
	"fmt"
	"net/http"

	"github.com/inkwell/inkwell/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "inkwell_subscriptions_accepted_total %d\n", snap.SubscriptionsAccepted)
	writeMetric(w, "inkwell_subscriptions_rejected_total %d\n", snap.SubscriptionsRejected)

	writeMetric(w, "inkwell_subscriptions_failed_total{stage=\"storage\"} %d\n", snap.SubscriptionsFailedStorage)
	writeMetric(w, "inkwell_subscriptions_failed_total{stage=\"token\"} %d\n", snap.SubscriptionsFailedToken)
	writeMetric(w, "inkwell_subscriptions_failed_total{stage=\"dispatch\"} %d\n", snap.SubscriptionsFailedDispatch)

	writeMetric(w, "inkwell_confirmations_completed_total %d\n", snap.ConfirmationsCompleted)
	writeMetric(w, "inkwell_confirmations_rejected_total %d\n", snap.ConfirmationsRejected)

	writeMetric(w, "inkwell_email_dispatch_duration_seconds_count %d\n", snap.DispatchDurationCount)
	writeMetric(w, "inkwell_email_dispatch_duration_seconds_sum %.6f\n", float64(snap.DispatchDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
