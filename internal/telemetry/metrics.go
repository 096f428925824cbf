package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Robota/internal/domain"
)

// Metrics — Prometheus-метрики запусков.
type Metrics struct {
	// RunsTotal — счётчик завершённых запусков по статусу и триггеру.
	RunsTotal *prometheus.CounterVec

	// RunDuration — гистограмма продолжительности запусков.
	RunDuration prometheus.Histogram

	// Failures — счётчик отказов по категории причины.
	Failures *prometheus.CounterVec

	// Skips — счётчик пропусков планировщика по категории причины.
	Skips *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики в реестре reg.
// Для глобального реестра передаётся prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "robota_runs_total",
			Help: "Completed runs by status and trigger.",
		}, []string{"status", "trigger"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "robota_run_duration_seconds",
			Help:    "Run duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "robota_run_failures_total",
			Help: "Failed runs by reason category.",
		}, []string{"reason"}),
		Skips: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "robota_scheduler_skips_total",
			Help: "Skipped scheduled runs by reason category.",
		}, []string{"reason"}),
	}
}

// ObserveRun учитывает завершённый запуск.
func (m *Metrics) ObserveRun(rec *domain.RunRecord) {
	m.RunsTotal.WithLabelValues(string(rec.Status), string(rec.Trigger)).Inc()

	switch rec.Status {
	case domain.RunStatusFailed:
		m.Failures.WithLabelValues(rec.Reason).Inc()
		m.RunDuration.Observe(rec.Duration().Seconds())
	case domain.RunStatusSkipped:
		m.Skips.WithLabelValues(rec.Reason).Inc()
	case domain.RunStatusSuccess:
		m.RunDuration.Observe(rec.Duration().Seconds())
	}
}
