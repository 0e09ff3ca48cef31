package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the processor's Prometheus instruments.
type Metrics struct {
	host string

	EventsProcessed *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	ScoresInserted  prometheus.Counter
	ScoresSkipped   prometheus.Counter
	ChallengesWon   prometheus.Counter
}

// New registers the instruments with the default registry, which is what
// the /metrics handler serves.
func New(namespace string) *Metrics {
	return NewWith(prometheus.DefaultRegisterer, namespace)
}

func NewWith(reg prometheus.Registerer, namespace string) *Metrics {
	host, _ := os.Hostname()
	m := &Metrics{
		host: host,
		EventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processed_events_total",
			Help:      "Number of inbound events processed, by event type",
		}, []string{"host", "event"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Number of inbound events dropped as malformed",
		}),
		ScoresInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_inserted_total",
			Help:      "Number of new score records persisted",
		}),
		ScoresSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_skipped_total",
			Help:      "Number of score submissions skipped as duplicates or unknown games",
		}),
		ChallengesWon: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_resolved_total",
			Help:      "Number of challenges resolved with a winner",
		}),
	}

	reg.MustRegister(
		m.EventsProcessed,
		m.EventsDropped,
		m.ScoresInserted,
		m.ScoresSkipped,
		m.ChallengesWon,
	)

	return m
}

// MarkEvent counts one processed event of the given type.
func (m *Metrics) MarkEvent(event string) {
	m.EventsProcessed.WithLabelValues(m.host, event).Inc()
}

// Serve exposes /metrics on addr. Blocks; intended to run in its own
// goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
