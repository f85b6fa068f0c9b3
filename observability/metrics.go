package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	coreMetricsOnce sync.Once
	coreRegistry    *StakingCoreMetrics
)

// ModuleMetrics returns the lazily-initialised HTTP module metrics registry
// used by the api/ query and governance-submission server to record request
// activity, independent of the domain-specific staking gauges below.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakingcore",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total HTTP requests segmented by route and outcome.",
			}, []string{"route", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakingcore",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Total HTTP errors segmented by route, method, and status code.",
			}, []string{"route", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stakingcore",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for API handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakingcore",
				Subsystem: "api",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by the rate limiter.",
			}, []string{"route", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of an API request. status should be the HTTP
// status ultimately written to the response writer.
func (m *moduleMetrics) Observe(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(route, method, statusLabel(status)).Inc()
	}
	m.requests.WithLabelValues(route, method, outcome).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied route and
// reason (e.g. "rate_limit").
func (m *moduleMetrics) RecordThrottle(route, reason string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(route, reason).Inc()
}

// StakingCoreMetrics bundles the gauges and counters a running block driver
// reports every block: active-set size, coinbase health, payout backlog,
// processing latency, and slashing activity.
type StakingCoreMetrics struct {
	activeValidators  prometheus.Gauge
	coinbaseBalance   prometheus.Gauge
	coinbaseStalled   prometheus.Gauge
	payoutQueueDepth  prometheus.Gauge
	blockLatency      prometheus.Histogram
	slashingEvents    *prometheus.CounterVec
	modulePaused      *prometheus.GaugeVec
	validatorDiffSize prometheus.Gauge
	walErrors         prometheus.Counter
}

// StakingCore returns the lazily-initialised staking domain metrics
// registry.
func StakingCore() *StakingCoreMetrics {
	coreMetricsOnce.Do(func() {
		coreRegistry = &StakingCoreMetrics{
			activeValidators: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stakingcore",
				Subsystem: "registry",
				Name:      "active_validators",
				Help:      "Number of validators currently in the active set.",
			}),
			coinbaseBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stakingcore",
				Subsystem: "coinbase",
				Name:      "balance",
				Help:      "Current coinbase balance available to settle payout intents.",
			}),
			coinbaseStalled: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stakingcore",
				Subsystem: "coinbase",
				Name:      "stalled",
				Help:      "1 if the coinbase payer is backpressured on insufficient balance, 0 otherwise.",
			}),
			payoutQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stakingcore",
				Subsystem: "coinbase",
				Name:      "payout_queue_depth",
				Help:      "Number of PayoutIntent entries still queued.",
			}),
			blockLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "stakingcore",
				Subsystem: "driver",
				Name:      "block_processing_seconds",
				Help:      "Latency distribution for a single ProcessBlock call.",
				Buckets:   prometheus.DefBuckets,
			}),
			slashingEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakingcore",
				Subsystem: "governance",
				Name:      "slashing_events_total",
				Help:      "Count of auto-slash applications segmented by fault kind.",
			}, []string{"fault"}),
			modulePaused: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "stakingcore",
				Subsystem: "governance",
				Name:      "module_paused",
				Help:      "1 if the named module is currently governance-paused, 0 otherwise.",
			}, []string{"module"}),
			validatorDiffSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stakingcore",
				Subsystem: "driver",
				Name:      "validator_diff_size",
				Help:      "Number of entries in the validator diff published for the last block.",
			}),
			walErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakingcore",
				Subsystem: "coinbase",
				Name:      "wal_errors_total",
				Help:      "Count of failed writes to the payout WAL.",
			}),
		}
		prometheus.MustRegister(
			coreRegistry.activeValidators,
			coreRegistry.coinbaseBalance,
			coreRegistry.coinbaseStalled,
			coreRegistry.payoutQueueDepth,
			coreRegistry.blockLatency,
			coreRegistry.slashingEvents,
			coreRegistry.modulePaused,
			coreRegistry.validatorDiffSize,
			coreRegistry.walErrors,
		)
	})
	return coreRegistry
}

// ObserveBlock records one ProcessBlock call's shape: its wall-clock cost
// plus the snapshot gauges a dashboard would want alongside it.
func (m *StakingCoreMetrics) ObserveBlock(d time.Duration, activeValidators int, coinbaseBalance float64, coinbaseStalled bool, payoutQueueDepth int, diffSize int) {
	if m == nil {
		return
	}
	m.blockLatency.Observe(d.Seconds())
	m.activeValidators.Set(float64(activeValidators))
	m.coinbaseBalance.Set(coinbaseBalance)
	m.payoutQueueDepth.Set(float64(payoutQueueDepth))
	m.validatorDiffSize.Set(float64(diffSize))
	if coinbaseStalled {
		m.coinbaseStalled.Set(1)
	} else {
		m.coinbaseStalled.Set(0)
	}
}

// RecordSlashingEvent increments the slashing counter for the given fault
// kind label (e.g. "double_sign", "liveness").
func (m *StakingCoreMetrics) RecordSlashingEvent(fault string) {
	if m == nil {
		return
	}
	if fault = strings.TrimSpace(fault); fault == "" {
		fault = "unknown"
	}
	m.slashingEvents.WithLabelValues(fault).Inc()
}

// RecordWALError increments the payout WAL error counter.
func (m *StakingCoreMetrics) RecordWALError() {
	if m == nil {
		return
	}
	m.walErrors.Inc()
}

// SetModulePaused reflects a ModulePause governance op's effect.
func (m *StakingCoreMetrics) SetModulePaused(module string, paused bool) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if paused {
		m.modulePaused.WithLabelValues(module).Set(1)
	} else {
		m.modulePaused.WithLabelValues(module).Set(0)
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
