package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	requests        *prom.CounterVec
	requestDuration *prom.HistogramVec
	bytesServed     prom.Counter
	panics          prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "relkit",
			Subsystem: "serve",
			Name:      "requests_total",
			Help:      "Served HTTP requests by method and status code",
		}, []string{"method", "code"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "relkit",
			Subsystem: "serve",
			Name:      "request_duration_seconds",
			Help:      "Duration of served HTTP requests",
			Buckets:   prom.DefBuckets,
		}, []string{"method"}),
		bytesServed: prom.NewCounter(prom.CounterOpts{
			Namespace: "relkit",
			Subsystem: "serve",
			Name:      "response_bytes_total",
			Help:      "Bytes written in response bodies",
		}),
		panics: prom.NewCounter(prom.CounterOpts{
			Namespace: "relkit",
			Subsystem: "serve",
			Name:      "handler_panics_total",
			Help:      "Recovered handler panics",
		}),
	}
	reg.MustRegister(pr.requests, pr.requestDuration, pr.bytesServed, pr.panics)
	return pr
}

// Handler exposes the recorder's registry in the Prometheus text or
// OpenMetrics format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveRequest(method string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	p.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddBytesServed(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.bytesServed.Add(float64(n))
}

func (p *PrometheusRecorder) IncPanics() {
	if p == nil {
		return
	}
	p.panics.Inc()
}
