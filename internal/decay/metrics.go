package decay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - Prometheus-метрики движка и планировщика.
// Нулевой указатель допустим: все методы становятся no-op.
type Metrics struct {
	checks         *prometheus.CounterVec
	skips          *prometheus.CounterVec
	mutationErrors *prometheus.CounterVec
	distance       prometheus.Histogram
	duration       prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil - без регистрации).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leafdecay",
			Name:      "checks_total",
			Help:      "Число проверок листвы по результату.",
		}, []string{"outcome", "adjacency"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leafdecay",
			Name:      "scheduler_skips_total",
			Help:      "Пропущенные тики планировщика по причине.",
		}, []string{"reason"}),
		mutationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leafdecay",
			Name:      "mutation_errors_total",
			Help:      "Ошибки изменения мира при опадании листвы.",
		}, []string{"effect"}),
		distance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leafdecay",
			Name:      "support_distance",
			Help:      "Расстояние от сохранившейся листвы до опоры.",
			Buckets:   []float64{0, 1, 2, 3, 4},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leafdecay",
			Name:      "check_duration_seconds",
			Help:      "Длительность одной проверки.",
			Buckets:   prometheus.ExponentialBuckets(0.000005, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.checks, m.skips, m.mutationErrors, m.distance, m.duration)
	}
	return m
}

func (m *Metrics) observeCheck(res Result, adj Adjacency, took time.Duration) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(res.Outcome.String(), adj.String()).Inc()
	if res.Distance >= 0 {
		m.distance.Observe(float64(res.Distance))
	}
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) observeSkip(status TickStatus) {
	if m == nil {
		return
	}
	m.skips.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) observeMutationError(effect string) {
	if m == nil {
		return
	}
	m.mutationErrors.WithLabelValues(effect).Inc()
}

// Checks возвращает счётчик проверок (для тестов и /api/stats)
func (m *Metrics) Checks() *prometheus.CounterVec { return m.checks }

// Skips возвращает счётчик пропусков
func (m *Metrics) Skips() *prometheus.CounterVec { return m.skips }

// MutationErrors возвращает счётчик ошибок изменения мира
func (m *Metrics) MutationErrors() *prometheus.CounterVec { return m.mutationErrors }
