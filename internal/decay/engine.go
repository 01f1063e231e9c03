package decay

import (
	"sync"
	"time"

	"github.com/annel0/leafdecay/internal/logging"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// Outcome - решение по одному блоку листвы
type Outcome uint8

const (
	// Persist - опора найдена, блок остаётся.
	Persist Outcome = iota
	// Decay - опоры нет, блок разрушается.
	Decay
	// NotFoliage - в точке проверки нет листвы, мир не меняется.
	NotFoliage
	// Skipped - планировщик пропустил тик, проверка не выполнялась.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Persist:
		return "persist"
	case Decay:
		return "decay"
	case Skipped:
		return "skipped"
	default:
		return "not_foliage"
	}
}

// Request - запрос на проверку одной позиции
type Request struct {
	Origin    vec.Vec3
	Adjacency Adjacency
}

// Result - итог проверки. Distance равно -1, если опора не найдена.
type Result struct {
	Outcome  Outcome
	Distance int
}

// Mutator - изменения мира, которые движок выполняет по результату.
// Каждый эффект независим: ошибка одного не отменяет остальные.
type Mutator interface {
	MarkChecked(pos vec.Vec3)
	Drops(pos vec.Vec3) []block.ItemStack
	SpawnDrop(pos vec.Vec3, item block.ItemStack) error
	Remove(pos vec.Vec3) error
	PlayBreakEffect(pos vec.Vec3) error
}

// World - всё, что нужно движку от мира
type World interface {
	Classifier
	Mutator
}

// Engine вычисляет расстояние до опоры и применяет решение.
// Безопасен для вызова из нескольких горутин: каждая проверка берёт
// собственное поле из пула.
type Engine struct {
	fields  sync.Pool
	metrics *Metrics
	logger  *logging.Logger
}

// NewEngine создаёт движок. metrics может быть nil.
func NewEngine(metrics *Metrics) *Engine {
	e := &Engine{
		metrics: metrics,
		logger:  logging.GetDecayLogger(),
	}
	e.fields.New = func() any { return NewDistanceField() }
	return e
}

// Inspect считает расстояние без изменения мира
func (e *Engine) Inspect(cls Classifier, req Request) Result {
	f := e.fields.Get().(*DistanceField)
	defer e.fields.Put(f)

	f.Populate(cls, req.Origin)

	var origin vec.Vec3
	switch f.State(origin) {
	case StateAnchor:
		return Result{Outcome: NotFoliage, Distance: 0}
	case StateObstacle:
		return Result{Outcome: NotFoliage, Distance: -1}
	}

	f.Relax(req.Adjacency)

	if d, ok := f.Distance(origin); ok {
		return Result{Outcome: Persist, Distance: d}
	}
	return Result{Outcome: Decay, Distance: -1}
}

// Check проверяет блок листвы и применяет решение к миру.
func (e *Engine) Check(w World, req Request) Result {
	start := time.Now()
	res := e.Inspect(w, req)

	switch res.Outcome {
	case Persist:
		w.MarkChecked(req.Origin)
	case Decay:
		e.decay(w, req.Origin)
	}

	e.metrics.observeCheck(res, req.Adjacency, time.Since(start))
	e.logger.Trace("Проверка %s (%s): %s, расстояние %d",
		req.Origin, req.Adjacency, res.Outcome, res.Distance)
	return res
}

func (e *Engine) decay(w Mutator, pos vec.Vec3) {
	for _, item := range w.Drops(pos) {
		if err := w.SpawnDrop(pos, item); err != nil {
			e.metrics.observeMutationError("spawn_drop")
			e.logger.Warn("Не удалось выбросить предмет %d×%d в %s: %v", item.Item, item.Count, pos, err)
		}
	}
	if err := w.Remove(pos); err != nil {
		e.metrics.observeMutationError("remove")
		e.logger.Warn("Не удалось удалить листву в %s: %v", pos, err)
	}
	if err := w.PlayBreakEffect(pos); err != nil {
		e.metrics.observeMutationError("break_effect")
		e.logger.Debug("Эффект разрушения в %s не воспроизведён: %v", pos, err)
	}
}
