package meter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal holds the prometheus collectors for a running session.
// Each instance has its own registry so tests can build as many as they like.
type StatsInternal struct {
	Registry    *prometheus.Registry
	Events      *prometheus.CounterVec // input events by kind
	Transitions *prometheus.CounterVec // state changes by from and to
	Errors      prometheus.Counter     // events the driver refused
	Dropped     prometheus.Counter     // events the queue could not take
	WWW         *prometheus.CounterVec // http requests by code and method
	DrawTimer   prometheus.Histogram   // seconds spent in one draw
}

func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()
	s := &StatsInternal{
		Registry: reg,
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meter",
			Name:      "events_total",
			Help:      "Input events handled, by kind.",
		}, []string{"kind"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meter",
			Name:      "transitions_total",
			Help:      "State changes, by source and destination state.",
		}, []string{"from", "to"}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meter",
			Name:      "driver_errors_total",
			Help:      "Events that halted the driver.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meter",
			Name:      "events_dropped_total",
			Help:      "Events dropped because the queue was full.",
		}),
		WWW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meter",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by status code and method.",
		}, []string{"code", "method"}),
		DrawTimer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meter",
			Name:      "draw_seconds",
			Help:      "Time to render one snapshot to every output.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
	}

	reg.MustRegister(
		s.Events, s.Transitions, s.Errors, s.Dropped, s.WWW, s.DrawTimer,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// Handler serves this registry for /metrics
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

func (s *StatsInternal) RecEvent(kind string) { s.Events.WithLabelValues(kind).Inc() }
func (s *StatsInternal) RecTransition(from, to string) { s.Transitions.WithLabelValues(from, to).Inc() }
func (s *StatsInternal) RecError() { s.Errors.Inc() }
func (s *StatsInternal) RecDropped() { s.Dropped.Inc() }
func (s *StatsInternal) RecWWW(code, method string) { s.WWW.WithLabelValues(code, method).Inc() }
func (s *StatsInternal) RecDrawTimer(seconds float64) { s.DrawTimer.Observe(seconds) }
