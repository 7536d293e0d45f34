// Package metrics exposes prometheus collectors for the pools ledger.
package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolsMetrics aggregates the counters and gauges maintained by the pools
// engine. A nil receiver disables collection.
type PoolsMetrics struct {
	tvl             prometheus.Gauge
	rewardsRecorded prometheus.Counter
	rewardsMissed   prometheus.Counter
	poolsPaused     prometheus.Counter
	slashesApplied  prometheus.Counter
	anomalies       prometheus.Counter
}

// NewPoolsMetrics registers the pools collectors with the given registerer.
func NewPoolsMetrics(reg prometheus.Registerer) *PoolsMetrics {
	m := &PoolsMetrics{
		tvl: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lstchain",
			Subsystem: "pools",
			Name:      "tvl_native_units",
			Help:      "Current total value locked in native base units.",
		}),
		rewardsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lstchain",
			Subsystem: "pools",
			Name:      "rewards_recorded_total",
			Help:      "Era rewards successfully funded and recorded.",
		}),
		rewardsMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lstchain",
			Subsystem: "pools",
			Name:      "rewards_missed_total",
			Help:      "Era rewards a pool could not cover.",
		}),
		poolsPaused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lstchain",
			Subsystem: "pools",
			Name:      "pools_paused_total",
			Help:      "Pools paused by the reward pass.",
		}),
		slashesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lstchain",
			Subsystem: "pools",
			Name:      "slashes_applied_total",
			Help:      "Pending slashes executed against pool funds.",
		}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lstchain",
			Subsystem: "pools",
			Name:      "anomalies_total",
			Help:      "Internal consistency failures logged and skipped.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.tvl, m.rewardsRecorded, m.rewardsMissed,
			m.poolsPaused, m.slashesApplied, m.anomalies)
	}
	return m
}

// ObserveTVL records the current total value locked. Values beyond float64
// precision are approximated; the gauge is for dashboards, not accounting.
func (m *PoolsMetrics) ObserveTVL(current *big.Int) {
	if m == nil || current == nil {
		return
	}
	value, _ := new(big.Float).SetInt(current).Float64()
	m.tvl.Set(value)
}

// RewardRecorded counts a funded era reward.
func (m *PoolsMetrics) RewardRecorded() {
	if m == nil {
		return
	}
	m.rewardsRecorded.Inc()
}

// RewardMissed counts a reward the pool funds could not cover.
func (m *PoolsMetrics) RewardMissed() {
	if m == nil {
		return
	}
	m.rewardsMissed.Inc()
}

// PoolPaused counts a pool paused by the reward pass.
func (m *PoolsMetrics) PoolPaused() {
	if m == nil {
		return
	}
	m.poolsPaused.Inc()
}

// SlashApplied counts an executed slash.
func (m *PoolsMetrics) SlashApplied() {
	if m == nil {
		return
	}
	m.slashesApplied.Inc()
}

// Anomaly counts an internal consistency failure that was logged and skipped.
func (m *PoolsMetrics) Anomaly() {
	if m == nil {
		return
	}
	m.anomalies.Inc()
}
