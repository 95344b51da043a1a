// Package metrics provides Prometheus metrics for the blog backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CaptchaIssued counts image captchas handed out.
	CaptchaIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "captcha_issued_total",
			Help:      "Total number of image captchas issued",
		},
	)

	// SMSSent counts SMS dispatch attempts by outcome.
	SMSSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "sms_sent_total",
			Help:      "Total number of SMS verification codes dispatched",
		},
		[]string{"status"},
	)

	// VerificationFailures counts rejected captcha and SMS checks.
	VerificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "verification_failures_total",
			Help:      "Total number of failed verification attempts",
		},
		[]string{"stage", "reason"},
	)

	ArticleViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "article_views_total",
			Help:      "Total number of article detail views",
		},
	)

	CommentsPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "comments_total",
			Help:      "Total number of comments posted",
		},
	)

	// RequestDuration measures HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blog",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

// RecordVerificationFailure records a rejected verification step.
func RecordVerificationFailure(stage, reason string) {
	VerificationFailures.WithLabelValues(stage, reason).Inc()
}

// RecordSMS records an SMS dispatch outcome ("ok" or "error").
func RecordSMS(status string) {
	SMSSent.WithLabelValues(status).Inc()
}
