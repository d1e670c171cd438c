package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FanOutRecipients counts per-recipient insert attempts by outcome
	// ("created" or "failed").
	FanOutRecipients = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "charityops",
		Subsystem: "notifications",
		Name:      "fanout_recipients_total",
		Help:      "Per-recipient notification insert attempts by outcome.",
	}, []string{"outcome"})

	// FanOutEvents counts fan-out calls by event type.
	FanOutEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "charityops",
		Subsystem: "notifications",
		Name:      "fanout_events_total",
		Help:      "Fan-out calls by event type.",
	}, []string{"type"})

	// MarkedRead counts read transitions by path ("single" or "all").
	MarkedRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "charityops",
		Subsystem: "notifications",
		Name:      "marked_read_total",
		Help:      "Notifications transitioned to read by path.",
	}, []string{"path"})
)
