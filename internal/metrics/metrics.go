package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_login_attempts_total",
			Help: "Login attempts by access scope and outcome.",
		},
		[]string{"scope", "outcome"},
	)

	socialLoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_social_login_total",
			Help: "Social login exchanges by medium and outcome.",
		},
		[]string{"medium", "outcome"},
	)

	accountLockoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "authgate_account_lockouts_total",
			Help: "Accounts that crossed the failed-attempt threshold.",
		},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authgate_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Register registers all collectors in the default registry. Call once at
// startup.
func Register() {
	prometheus.MustRegister(
		loginAttemptsTotal,
		socialLoginTotal,
		accountLockoutsTotal,
		httpRequestDuration,
	)
}

// Handler exposes the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordLoginAttempt counts one login attempt outcome for an access scope
func RecordLoginAttempt(scope, outcome string) {
	loginAttemptsTotal.WithLabelValues(scope, outcome).Inc()
}

// RecordSocialLogin counts one social exchange outcome for a medium
func RecordSocialLogin(medium, outcome string) {
	socialLoginTotal.WithLabelValues(medium, outcome).Inc()
}

// RecordLockout counts an account crossing the lockout threshold
func RecordLockout() {
	accountLockoutsTotal.Inc()
}

// Instrument measures request latency per method/path/status
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		httpRequestDuration.WithLabelValues(
			r.Method, r.URL.Path, strconv.Itoa(sw.code),
		).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the response status code
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
