// Package metrics exports account activity as prometheus counters.
package metrics

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	account "github.com/nightcatsama/go-account"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "account"

var _ account.ActivitySink = (*Metrics)(nil)

// Metrics holds the account collectors and the registry they live in
type Metrics struct {
	registry *prometheus.Registry

	ActivityTotal    *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

// New creates the collectors on a private registry, together with the
// go runtime and process collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActivityTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activity_total",
				Help:      "Account lifecycle events by type",
			},
			[]string{"event"},
		),
		TransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Account state transitions",
			},
			[]string{"from", "to"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Registry exposes the registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Record implements account.ActivitySink
func (m *Metrics) Record(_ context.Context, event account.ActivityEvent) error {
	m.ActivityTotal.WithLabelValues(string(event.EventType)).Inc()
	if event.FromState != "" && event.ToState != "" && event.FromState != event.ToState {
		m.TransitionsTotal.WithLabelValues(string(event.FromState), string(event.ToState)).Inc()
	}
	return nil
}

// Handler serves the prometheus exposition format
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware counts requests once the handler chain returns
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		m.HTTPRequests.WithLabelValues(c.Method(), route, statusLabel(status)).Inc()
		return err
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
