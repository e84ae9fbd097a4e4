package wehttp

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/weegigs/wee-contracts-go/we"
)

func WithTelemetry(h http.Handler, name string) http.Handler {
	return otelhttp.NewHandler(h, name)
}

type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the invocation collectors with registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wecontracts",
			Name:      "invocations_total",
			Help:      "Entry point calls by outcome.",
		}, []string{"entry_point", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wecontracts",
			Name:      "invocation_duration_seconds",
			Help:      "Entry point call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entry_point"}),
	}

	for _, collector := range []prometheus.Collector{metrics.invocations, metrics.duration} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}

func outcome(err error) string {
	switch StatusOf(err) {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "contract_error"
	case http.StatusMethodNotAllowed:
		return "read_only"
	case http.StatusConflict:
		return "conflict"
	default:
		return "error"
	}
}

func (m *Metrics) observe(entryPoint we.EntryPointName, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = outcome(err)
	}

	m.invocations.WithLabelValues(entryPoint.String(), result).Inc()
	m.duration.WithLabelValues(entryPoint.String()).Observe(elapsed.Seconds())
}
