package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyon_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyon_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BillingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyon_billing_requests_total",
			Help: "Total number of requests to the billing service",
		},
		[]string{"operation", "outcome"},
	)

	BillingRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyon_billing_request_duration_seconds",
			Help:    "Billing service request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CoursePurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyon_course_purchases_total",
			Help: "Total number of course purchase attempts",
		},
		[]string{"course_type", "outcome"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studyon_sessions_active",
			Help: "Number of sessions created minus sessions deleted",
		},
	)

	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyon_token_refreshes_total",
			Help: "Total number of billing token refreshes",
		},
		[]string{"outcome"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyon_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studyon_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBillingRequest(operation, outcome string, duration float64) {
	BillingRequestsTotal.WithLabelValues(operation, outcome).Inc()
	BillingRequestDuration.WithLabelValues(operation).Observe(duration)
}

func RecordCoursePurchase(courseType, outcome string) {
	CoursePurchasesTotal.WithLabelValues(courseType, outcome).Inc()
}

func RecordTokenRefresh(outcome string) {
	TokenRefreshesTotal.WithLabelValues(outcome).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
