package utils

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	HTTPRequestTotal          = "mintern_http_requests_total"
	NotificationsCreatedTotal = "mintern_notifications_created_total"
	NotificationDeliveryTotal = "mintern_notification_deliveries_total"
	ContentCreatedTotal       = "mintern_content_created_total"
	MentorReviewsTotal        = "mintern_mentor_reviews_total"

	HTTPRequestDuration = "mintern_http_request_duration_seconds"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"method", "status_code"}),
		NotificationsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: NotificationsCreatedTotal,
			Help: "Notifications written, by event",
		}, []string{"event"}),
		NotificationDeliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: NotificationDeliveryTotal,
			Help: "Per-recipient notification rows, by result",
		}, []string{"result"}),
		ContentCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ContentCreatedTotal,
			Help: "Questions, answers and comments created",
		}, []string{"kind"}),
		MentorReviewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MentorReviewsTotal,
			Help: "Mentor evidence reviews, by decision",
		}, []string{"decision"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDuration,
			Help: "Duration of all HTTP requests",
		}, []string{"method", "status_code"}),
	}
)

// IncCounter bumps a registered counter; unknown names are ignored.
func IncCounter(name string, labels ...string) {
	if c, ok := PromCounters[name]; ok {
		c.WithLabelValues(labels...).Inc()
	}
}

// ObserveDuration records d in a registered histogram; unknown names are ignored.
func ObserveDuration(name string, d time.Duration, labels ...string) {
	if h, ok := PromHistograms[name]; ok {
		h.WithLabelValues(labels...).Observe(d.Seconds())
	}
}

// NewMetricsHandler exposes the forum counters plus Go runtime collectors.
func NewMetricsHandler() http.Handler {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	for _, counter := range PromCounters {
		registry.MustRegister(counter)
	}
	for _, histogram := range PromHistograms {
		registry.MustRegister(histogram)
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
