package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	httpDurationHistogram     *prometheus.HistogramVec
	purchaseCounter           *prometheus.CounterVec
	providerCallHistogram     *prometheus.HistogramVec
	compensationCounter       *prometheus.CounterVec
	reconciliationConflictCtr *prometheus.CounterVec
	ledgerDriftGauge          prometheus.Gauge
	idempotencyCounter        *prometheus.CounterVec
	callbackCounter           *prometheus.CounterVec
	workerRunCounter          *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		purchaseCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchases by product and resulting status",
		}, []string{"product", "status"})

		providerCallHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "Provider call latency by operation and outcome",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"provider", "operation", "outcome"})

		compensationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchase_compensations_total",
			Help: "Refunds issued for failed purchases",
		}, []string{"trigger"})

		reconciliationConflictCtr = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_conflicts_total",
			Help: "Provider outcomes that disagree with an already terminal purchase",
		}, []string{"source"})

		ledgerDriftGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_drift_wallets",
			Help: "Wallets whose balance disagrees with the replayed ledger at the last audit",
		})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency guard outcomes",
		}, []string{"outcome"})

		callbackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_callbacks_total",
			Help: "Provider callbacks by handling outcome",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			purchaseCounter,
			providerCallHistogram,
			compensationCounter,
			reconciliationConflictCtr,
			ledgerDriftGauge,
			idempotencyCounter,
			callbackCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementPurchase(product, status string) {
	if purchaseCounter == nil {
		return
	}
	purchaseCounter.WithLabelValues(product, status).Inc()
}

func ObserveProviderCall(provider, operation, outcome string, duration time.Duration) {
	if providerCallHistogram == nil {
		return
	}
	providerCallHistogram.WithLabelValues(provider, operation, outcome).Observe(duration.Seconds())
}

func IncrementCompensation(trigger string) {
	if compensationCounter == nil {
		return
	}
	compensationCounter.WithLabelValues(trigger).Inc()
}

func IncrementReconciliationConflict(source string) {
	if reconciliationConflictCtr == nil {
		return
	}
	reconciliationConflictCtr.WithLabelValues(source).Inc()
}

func SetLedgerDrift(wallets int) {
	if ledgerDriftGauge == nil {
		return
	}
	ledgerDriftGauge.Set(float64(wallets))
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementCallback(outcome string) {
	if callbackCounter == nil {
		return
	}
	callbackCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
