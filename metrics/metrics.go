package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auth "github.com/goliatone/go-ems-auth"
)

const namespace = "ems_auth"

// Recorder owns the service metrics and the registry they live in
type Recorder struct {
	registry *prometheus.Registry

	activity      *prometheus.CounterVec
	logins        *prometheus.CounterVec
	tokens        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewRecorder registers the service metrics, plus the Go runtime and
// process collectors, on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		activity: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_total",
			Help:      "Total number of account lifecycle events",
		}, []string{"event"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts by portal and outcome",
		}, []string{"portal", "outcome"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_checks_total",
			Help:      "Total number of requests seen by the authentication gate by outcome",
		}, []string{"outcome"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of credential notices by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// Record implements auth.ActivitySink
func (r *Recorder) Record(_ context.Context, event auth.ActivityEvent) error {
	r.activity.WithLabelValues(string(event.EventType)).Inc()

	switch event.EventType {
	case auth.ActivityEventLoginSuccess:
		r.logins.WithLabelValues(portalLabel(event), "success").Inc()
	case auth.ActivityEventLoginFailure:
		outcome := "failure"
		if reason, ok := event.Metadata["reason"].(string); ok && reason != "" {
			outcome = reason
		}
		r.logins.WithLabelValues(portalLabel(event), outcome).Inc()
	}
	return nil
}

// ObserveToken counts one authentication gate outcome
func (r *Recorder) ObserveToken(outcome string) {
	r.tokens.WithLabelValues(outcome).Inc()
}

// ObserveNotification counts one delivery attempt
func (r *Recorder) ObserveNotification(kind, outcome string) {
	r.notifications.WithLabelValues(kind, outcome).Inc()
}

// Registry exposes the underlying registry, mostly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func portalLabel(event auth.ActivityEvent) string {
	if portal, ok := event.Metadata["portal"].(string); ok && portal != "" {
		return portal
	}
	return "unknown"
}
