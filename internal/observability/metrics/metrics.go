package metrics

import (
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                           sync.Once
	metricsRouter                  *chi.Mux
	httpRequestDurationHistogram   *prometheus.HistogramVec
	clientRequestDurationHistogram *prometheus.HistogramVec
	stakeOperationCounter          *prometheus.CounterVec
	commitRetryCounter             *prometheus.CounterVec
	queueSendErrorCounter          prometheus.Counter
	pollerDurationHistogram        *prometheus.HistogramVec
	totalStakedGauge               prometheus.Gauge
	stakeAccountsGauge             prometheus.Gauge
	clockOffsetGauge               prometheus.Gauge
	dbLatency                      *prometheus.HistogramVec
)

// Collectors exist from package load so the record helpers work in processes
// that never call Init, like the cli client commands.
func init() {
	newCollectors()
}

// Init registers the collectors and, for a non-zero port, serves them on
// /metrics.
func Init(metricsPort int) {
	once.Do(func() {
		if metricsPort > 0 {
			initMetricsRouter(metricsPort)
		}
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// newCollectors initializes the Prometheus metrics.
func newCollectors() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	// http requests are the ones served by the ledger api
	httpRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of http request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"endpoint", "status"},
	)

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	stakeOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stake_operation_count",
			Help: "Number of stake operations split by operation and resulting error code",
		},
		[]string{"operation", "code"},
	)

	commitRetryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stake_commit_retry_count",
			Help: "Number of stake operations re-run after losing a write race",
		},
		[]string{"operation"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"poller", "status"},
	)

	totalStakedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "total_staked",
			Help: "Sum of all stake account balances",
		},
	)

	stakeAccountsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stake_accounts",
			Help: "Number of stake accounts",
		},
	)

	clockOffsetGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clock_offset_seconds",
			Help: "Last measured offset between the system clock and the NTP server",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)
}

// registerMetrics registers the Prometheus metrics.
func registerMetrics() {
	prometheus.MustRegister(
		httpRequestDurationHistogram,
		clientRequestDurationHistogram,
		stakeOperationCounter,
		commitRetryCounter,
		queueSendErrorCounter,
		pollerDurationHistogram,
		totalStakedGauge,
		stakeAccountsGauge,
		clockOffsetGauge,
		dbLatency,
	)
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordStakeOperation(operation, code string) {
	stakeOperationCounter.WithLabelValues(operation, code).Inc()
}

func IncCommitRetries(operation string) {
	commitRetryCounter.WithLabelValues(operation).Inc()
}

// RecordStakeStats publishes the totals. The gauge loses precision above
// 2^53, which is fine for dashboards.
func RecordStakeStats(accounts uint64, totalStaked *big.Int) {
	total, _ := new(big.Float).SetInt(totalStaked).Float64()
	totalStakedGauge.Set(total)
	stakeAccountsGauge.Set(float64(accounts))
}

func RecordClockOffset(offset time.Duration) {
	clockOffsetGauge.Set(offset.Seconds())
}

// StartHttpRequestDurationTimer starts a timer to measure served request
// duration. The endpoint is passed at the end since it is known only after
// routing.
func StartHttpRequestDurationTimer() func(endpoint string, statusCode int) {
	startTime := time.Now()
	return func(endpoint string, statusCode int) {
		duration := time.Since(startTime).Seconds()
		httpRequestDurationHistogram.WithLabelValues(
			endpoint,
			strconv.Itoa(statusCode),
		).Observe(duration)
	}
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
