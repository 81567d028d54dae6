// Package metrics exposes workflow, ledger and HTTP collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

const namespace = "fest"

type Metrics struct {
	gatherer        prometheus.Gatherer
	workflows       *prometheus.CounterVec
	capacityDenials *prometheus.CounterVec
	requests        *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		workflows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_total",
			Help:      "Workflow invocations by outcome.",
		}, []string{"workflow", "outcome"}),
		capacityDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_denials_total",
			Help:      "Ledger decrements refused because the counter was exhausted.",
		}, []string{"counter"}),
		requests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Workflow counts one completed workflow. The outcome is "ok" or the error kind.
func (m *Metrics) Workflow(workflow string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	m.workflows.WithLabelValues(workflow, outcome).Inc()
}

func (m *Metrics) CapacityDenied(counter string) {
	m.capacityDenials.WithLabelValues(counter).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.
			WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
