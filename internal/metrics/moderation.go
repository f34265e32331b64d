// Package metrics exposes domain counters for the moderation workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"pdfreview/internal/model"
)

// ModerationRecorder counts change request submissions and resolutions.
// It satisfies service.Recorder.
type ModerationRecorder struct {
	submitted *prometheus.CounterVec
	resolved  *prometheus.CounterVec
}

// NewModerationRecorder registers the moderation counters on reg.
func NewModerationRecorder(reg prometheus.Registerer) (*ModerationRecorder, error) {
	r := &ModerationRecorder{
		submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "change_requests_submitted_total",
				Help: "Total number of change requests submitted.",
			},
			[]string{"kind"},
		),
		resolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "change_requests_resolved_total",
				Help: "Total number of change requests resolved, by decision.",
			},
			[]string{"kind", "decision"},
		),
	}

	for _, c := range []prometheus.Collector{r.submitted, r.resolved} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *ModerationRecorder) Submitted(kind model.RequestKind) {
	r.submitted.WithLabelValues(string(kind)).Inc()
}

func (r *ModerationRecorder) Resolved(kind model.RequestKind, decision model.RequestStatus) {
	r.resolved.WithLabelValues(string(kind), string(decision)).Inc()
}
