package remote

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times upstream calls by route template and status.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Calls made to the portfolio API, by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls made to the portfolio API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// observe records one call. Status 0 means the request never got an answer.
func (m *Metrics) observe(cl call, status int, elapsed time.Duration) {
	if m == nil {
		return
	}

	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	m.requests.WithLabelValues(cl.method, cl.route, label).Inc()
	m.duration.WithLabelValues(cl.method, cl.route).Observe(elapsed.Seconds())
}
