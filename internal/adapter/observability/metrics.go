package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation", "status"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "operation"},
	)
	AIFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallback_total",
			Help: "Total number of deterministic fallbacks taken after AI failures",
		},
		[]string{"operation"},
	)

	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_messages_total",
			Help: "Total number of handled conversation messages by reply type",
		},
		[]string{"type"},
	)
	SessionsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_completed_total",
			Help: "Total number of completed sessions by kind",
		},
		[]string{"kind"},
	)

	// Feedback outcome distribution
	FeedbackScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_feedback_score",
			Help:    "Distribution of per-answer interview feedback scores ([0,10])",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIFallbackTotal)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(SessionsCompletedTotal)
	prometheus.MustRegister(FeedbackScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			// fallback when route pattern is unavailable
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// RecordAIRequest records one AI call with its latency and outcome.
func RecordAIRequest(provider, operation string, dur time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	AIRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(dur.Seconds())
}

func RecordAIFallback(operation string) {
	AIFallbackTotal.WithLabelValues(operation).Inc()
}

func RecordMessage(replyType string) {
	MessagesTotal.WithLabelValues(replyType).Inc()
}

func RecordSessionCompleted(kind string) {
	SessionsCompletedTotal.WithLabelValues(kind).Inc()
}

// RecordFeedbackScore records a per-answer feedback score after clamping.
func RecordFeedbackScore(score float64) {
	if score >= 0 && score <= 10 {
		FeedbackScoreHistogram.Observe(score)
	}
}
