package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// verification workflow.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	campaignsLaunched prometheus.Counter
	tokensIssued      prometheus.Counter
	tokensSwept       prometheus.Counter
	submissionsTotal  *prometheus.CounterVec
	redemptionsTotal  *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	campaignsLaunched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_campaigns_launched_total",
		Help: "Campaigns moved to the active state",
	})

	tokensIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_tokens_issued_total",
		Help: "Verification tokens minted",
	})

	tokensSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_tokens_swept_total",
		Help: "Expired unused tokens removed by the sweeper",
	})

	submissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_submissions_total",
		Help: "Employee submissions by reconciliation outcome",
	}, []string{"outcome"})

	redemptionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verification_token_redemptions_total",
		Help: "Token redemption attempts by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, campaignsLaunched, tokensIssued, tokensSwept, submissionsTotal, redemptionsTotal, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		campaignsLaunched: campaignsLaunched,
		tokensIssued:      tokensIssued,
		tokensSwept:       tokensSwept,
		submissionsTotal:  submissionsTotal,
		redemptionsTotal:  redemptionsTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// CampaignLaunched counts a campaign activation.
func (m *MetricsService) CampaignLaunched() {
	if m != nil {
		m.campaignsLaunched.Inc()
	}
}

// TokensIssued counts minted tokens.
func (m *MetricsService) TokensIssued(n int) {
	if m != nil && n > 0 {
		m.tokensIssued.Add(float64(n))
	}
}

// TokensSwept counts tokens removed by the expiry sweeper.
func (m *MetricsService) TokensSwept(n int64) {
	if m != nil && n > 0 {
		m.tokensSwept.Add(float64(n))
	}
}

// SubmissionObserved counts one submission by its reconciliation outcome.
func (m *MetricsService) SubmissionObserved(outcome string) {
	if m != nil {
		m.submissionsTotal.WithLabelValues(outcome).Inc()
	}
}

// RedemptionObserved counts one token redemption attempt by result.
func (m *MetricsService) RedemptionObserved(result string) {
	if m != nil {
		m.redemptionsTotal.WithLabelValues(result).Inc()
	}
}
