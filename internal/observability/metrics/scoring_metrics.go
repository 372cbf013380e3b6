package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels attached to every metric.
type Config struct {
	ServiceName string
	Environment string
}

// ScoringMetrics tracks health scoring runs and alert emission.
type ScoringMetrics struct {
	scoringRuns     *prometheus.CounterVec
	scoringDuration prometheus.Histogram
	batchBacklog    prometheus.Gauge
	riskLevels      *prometheus.CounterVec
	alertsEmitted   *prometheus.CounterVec
}

var (
	scoringMetricsOnce sync.Once
	scoringMetrics     *ScoringMetrics
)

func Scoring() *ScoringMetrics {
	return ScoringWithConfig(Config{})
}

func ScoringWithConfig(cfg Config) *ScoringMetrics {
	scoringMetricsOnce.Do(func() {
		scoringMetrics = newScoringMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return scoringMetrics
}

func ResetScoringMetricsForTest() {
	scoringMetricsOnce = sync.Once{}
	scoringMetrics = nil
}

func newScoringMetrics(registerer prometheus.Registerer, cfg Config) *ScoringMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "pulse"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	scoringRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "pulse_scoring_runs_total",
			Help:        "Total customer scoring runs by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // calculated | failed | alert_failed
	)

	scoringDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "pulse_scoring_run_duration_seconds",
			Help:        "Duration of a single customer scoring run.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: constLabels,
		},
	)

	batchBacklog := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "pulse_batch_backlog",
			Help:        "Customers remaining in the current batch scoring run.",
			ConstLabels: constLabels,
		},
	)

	riskLevels := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "pulse_risk_level_total",
			Help:        "Computed snapshots by resulting risk level.",
			ConstLabels: constLabels,
		},
		[]string{"level"},
	)

	alertsEmitted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "pulse_alerts_emitted_total",
			Help:        "Alert events emitted by category.",
			ConstLabels: constLabels,
		},
		[]string{"category"},
	)

	registerer.MustRegister(
		scoringRuns,
		scoringDuration,
		batchBacklog,
		riskLevels,
		alertsEmitted,
	)

	return &ScoringMetrics{
		scoringRuns:     scoringRuns,
		scoringDuration: scoringDuration,
		batchBacklog:    batchBacklog,
		riskLevels:      riskLevels,
		alertsEmitted:   alertsEmitted,
	}
}

func (m *ScoringMetrics) IncScoringRun(result string) {
	if m == nil {
		return
	}
	m.scoringRuns.WithLabelValues(result).Inc()
}

func (m *ScoringMetrics) ObserveRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.scoringDuration.Observe(d.Seconds())
}

func (m *ScoringMetrics) SetBatchBacklog(remaining int) {
	if m == nil {
		return
	}
	if remaining < 0 {
		remaining = 0
	}
	m.batchBacklog.Set(float64(remaining))
}

func (m *ScoringMetrics) IncRiskLevel(level string) {
	if m == nil {
		return
	}
	m.riskLevels.WithLabelValues(level).Inc()
}

func (m *ScoringMetrics) IncAlertEmitted(category string) {
	if m == nil {
		return
	}
	m.alertsEmitted.WithLabelValues(category).Inc()
}
