package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"xform/internal/logging"
)

// Outcome labels of the invocation counter.
const (
	OutcomeOK        = "ok"
	OutcomeExecution = "execution_error"
	OutcomeOutput    = "output_error"
	OutcomeCanceled  = "canceled"
)

type Metrics struct {
	invocations   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	registrations *prometheus.CounterVec
	inflight      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xform",
			Name:      "invocations_total",
			Help:      "Transform invocations by outcome.",
		}, []string{"transform", "implementation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "xform",
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of transform invocations, validation included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"transform", "implementation"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xform",
			Name:      "registrations_total",
			Help:      "Transforms registered from the manifest.",
		}, []string{"implementation"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "xform",
			Name:      "invocations_in_flight",
			Help:      "Invocations currently running.",
		}),
	}
	for _, c := range []prometheus.Collector{m.invocations, m.duration, m.registrations, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) InvocationStarted() { m.inflight.Inc() }

func (m *Metrics) InvocationFinished(transform, implementation, outcome string, took time.Duration) {
	m.inflight.Dec()
	m.invocations.WithLabelValues(transform, implementation, outcome).Inc()
	m.duration.WithLabelValues(transform, implementation).Observe(took.Seconds())
}

func (m *Metrics) Registered(implementation string) {
	m.registrations.WithLabelValues(implementation).Inc()
}

// Expose serves g on :port/metrics in the background.
func Expose(port int, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Error("metrics endpoint stopped", "port", port, "err", err)
		}
	}()
	return srv
}
