// Package metrics collects and exposes Prometheus metrics for the
// gateway.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the service layer records through.
type Recorder interface {
	RecordLogin()
	RecordRegistration()
	RecordWebhook(eventType string)
	RecordEnqueue()
	RecordEnqueueFailure()
	RecordGitHubStatus(statusCode int)
}

// Collector implements Recorder on Prometheus counters.
type Collector struct {
	logins          prometheus.Counter
	registrations   prometheus.Counter
	webhooks        *prometheus.CounterVec
	enqueued        prometheus.Counter
	enqueueFailures prometheus.Counter
	githubStatus    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviewdeck_logins_total",
			Help: "Completed GitHub OAuth logins.",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviewdeck_repo_registrations_total",
			Help: "Accepted repository registrations.",
		}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewdeck_webhook_deliveries_total",
			Help: "Webhook deliveries received, by event type.",
		}, []string{"event"}),
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviewdeck_jobs_enqueued_total",
			Help: "Jobs pushed onto the review queue.",
		}),
		enqueueFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviewdeck_enqueue_failures_total",
			Help: "Queue pushes that errored.",
		}),
		githubStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewdeck_github_responses_total",
			Help: "GitHub API responses, by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.webhooks,
		c.enqueued,
		c.enqueueFailures,
		c.githubStatus,
	)

	return c
}

func (c *Collector) RecordLogin() { c.logins.Inc() }

func (c *Collector) RecordRegistration() { c.registrations.Inc() }

func (c *Collector) RecordWebhook(eventType string) {
	c.webhooks.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordEnqueue() { c.enqueued.Inc() }

func (c *Collector) RecordEnqueueFailure() { c.enqueueFailures.Inc() }

func (c *Collector) RecordGitHubStatus(statusCode int) {
	c.githubStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape endpoint for the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Nop is a Recorder that discards everything. Used in tests.
type Nop struct{}

func (Nop) RecordLogin() {}

func (Nop) RecordRegistration() {}

func (Nop) RecordWebhook(string) {}

func (Nop) RecordEnqueue() {}

func (Nop) RecordEnqueueFailure() {}

func (Nop) RecordGitHubStatus(int) {}
