package email

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatcpe",
			Name:      "email_sent_total",
			Help:      "Total number of emails sent successfully",
		},
		[]string{"type", "provider"},
	)

	emailsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatcpe",
			Name:      "email_failed_total",
			Help:      "Total number of failed email sends",
		},
		[]string{"type", "provider", "error_type"},
	)

	emailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatcpe",
			Name:      "email_send_duration_seconds",
			Help:      "Email sending duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"type", "provider"},
	)
)

func observeSend(kind, provider string, err error, took time.Duration) {
	emailSendDuration.WithLabelValues(kind, provider).Observe(took.Seconds())
	if err == nil {
		emailsSentTotal.WithLabelValues(kind, provider).Inc()
		return
	}
	errType := "transient"
	if errors.Is(err, ErrAuthFailed) {
		errType = "auth"
	}
	emailsFailedTotal.WithLabelValues(kind, provider, errType).Inc()
}
