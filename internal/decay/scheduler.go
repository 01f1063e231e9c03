package decay

import (
	"math/rand"
	"sync"
	"time"

	"github.com/annel0/leafdecay/internal/vec"
)

// AreaWorld - мир, который умеет сообщать о загруженности области
type AreaWorld interface {
	World
	IsAreaLoaded(center vec.Vec3, radius int) bool
}

// TickStatus - что планировщик сделал на этом тике
type TickStatus uint8

const (
	TickSkippedChance TickStatus = iota
	TickSkippedUnloaded
	TickChecked
)

func (s TickStatus) String() string {
	switch s {
	case TickSkippedChance:
		return "chance"
	case TickSkippedUnloaded:
		return "unloaded"
	default:
		return "checked"
	}
}

// SchedulerConfig - параметры случайного тика листвы
type SchedulerConfig struct {
	// Chance - вероятность проверки кандидата за тик.
	Chance float64
	// LoadRadius - радиус области, которая должна быть загружена перед
	// проверкой. Окно выборки имеет радиус 4; значение 6 сохранено для
	// совместимости и может быть уменьшено до Radius.
	LoadRadius int
	// NeighborRadius - быстрая предварительная проверка ближайших соседей.
	NeighborRadius int
}

// DefaultSchedulerConfig возвращает значения по умолчанию
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Chance:         1.0 / 16,
		LoadRadius:     6,
		NeighborRadius: 1,
	}
}

// Scheduler решает, запускать ли проверку для кандидата на этом тике.
type Scheduler struct {
	engine  *Engine
	cfg     SchedulerConfig
	metrics *Metrics

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScheduler создаёт планировщик. При rng == nil используется источник,
// засеянный текущим временем.
func NewScheduler(engine *Engine, cfg SchedulerConfig, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.LoadRadius < Radius {
		cfg.LoadRadius = Radius
	}
	if cfg.NeighborRadius < 0 {
		cfg.NeighborRadius = 0
	}
	return &Scheduler{
		engine:  engine,
		cfg:     cfg,
		metrics: engine.metrics,
		rng:     rng,
	}
}

// Config возвращает действующие параметры
func (s *Scheduler) Config() SchedulerConfig {
	return s.cfg
}

func (s *Scheduler) roll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.cfg.Chance
}

// Tick выполняет один случайный тик для кандидата req.Origin.
// При любом пропуске мир не изменяется.
func (s *Scheduler) Tick(w AreaWorld, req Request) (Result, TickStatus) {
	skipped := Result{Outcome: Skipped, Distance: -1}

	if !s.roll() {
		s.metrics.observeSkip(TickSkippedChance)
		return skipped, TickSkippedChance
	}

	if !w.IsAreaLoaded(req.Origin, s.cfg.NeighborRadius) ||
		!w.IsAreaLoaded(req.Origin, s.cfg.LoadRadius) {
		s.metrics.observeSkip(TickSkippedUnloaded)
		return skipped, TickSkippedUnloaded
	}

	return s.engine.Check(w, req), TickChecked
}
