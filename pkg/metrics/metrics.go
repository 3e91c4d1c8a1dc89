package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Action outcomes
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xpurge_runs_total",
		Help: "Pipeline runs by kind and final state",
	}, []string{"kind", "state"})
	Actions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xpurge_actions_total",
		Help: "Delete and unlike actions by outcome",
	}, []string{"kind", "outcome"})
	Fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xpurge_fetches_total",
		Help: "Batch fetches by kind",
	}, []string{"kind"})
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xpurge_api_requests_total",
		Help: "API requests by endpoint and status code",
	}, []string{"endpoint", "code"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xpurge_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	RunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xpurge_run_duration_seconds",
		Help:    "Pipeline run duration seconds",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(Runs, Actions, Fetches, Requests, APIRetries, RunDuration)
}

// Handler returns the mux served by StartServer
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// StartServer serves /metrics on addr until ctx is done. An empty addr is a no-op.
func StartServer(ctx context.Context, addr string) <-chan error {
	errc := make(chan error, 1)
	if addr == "" {
		close(errc)
		return errc
	}

	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		defer close(errc)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return errc
}

// ObserveRun records the end of a pipeline run that took elapsed
func ObserveRun(kind, state string, elapsed time.Duration) {
	Runs.WithLabelValues(kind, state).Inc()
	RunDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// IncAction counts one delete or unlike
func IncAction(kind, outcome string) { Actions.WithLabelValues(kind, outcome).Inc() }

// IncFetch counts one batch fetch
func IncFetch(kind string) { Fetches.WithLabelValues(kind).Inc() }

// ObserveRequest counts an API response; code 0 means no response arrived
func ObserveRequest(endpoint string, code int) {
	Requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }
