// Package metrics exposes Prometheus collectors for the petition API.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"petitionhub-backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "petitionhub"

// Metrics holds every collector the service records
type Metrics struct {
	gatherer prometheus.Gatherer

	PetitionsCreated   prometheus.Counter
	Signatures         prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,
		PetitionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "petitions_created_total",
			Help:      "Number of petitions created.",
		}),
		Signatures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signatures_total",
			Help:      "Number of signatures accepted.",
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Field validation failures by form, field and kind.",
		}, []string{"form", "field", "kind"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveValidation counts each field error of a failed submission.
// Errors that are not validation errors are ignored.
func (m *Metrics) ObserveValidation(form string, err error) {
	if m == nil {
		return
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return
	}
	for _, fe := range errs {
		m.ValidationFailures.WithLabelValues(form, fe.Field, string(fe.Kind)).Inc()
	}
}

// PetitionCreated counts a created petition
func (m *Metrics) PetitionCreated() {
	if m != nil {
		m.PetitionsCreated.Inc()
	}
}

// SignatureAccepted counts a stored signature
func (m *Metrics) SignatureAccepted() {
	if m != nil {
		m.Signatures.Inc()
	}
}

// Middleware records request count and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
