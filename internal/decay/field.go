package decay

import "github.com/annel0/leafdecay/internal/vec"

const (
	// Radius - полуширина окна выборки вокруг проверяемого блока.
	Radius = 4
	// MaxDistance - предельное расстояние до опоры, при котором листва живёт.
	MaxDistance = 4

	fieldEdge  = 2*Radius + 1
	fieldCells = fieldEdge * fieldEdge * fieldEdge
)

// CellState - состояние клетки поля расстояний
type CellState uint8

const (
	StateObstacle CellState = iota
	StateAnchor
	StatePending
	StateResolved
)

func (s CellState) String() string {
	switch s {
	case StateAnchor:
		return "anchor"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	default:
		return "obstacle"
	}
}

type fieldCell struct {
	gen   uint32
	state CellState
	dist  int8
}

// DistanceField - рабочая сетка 9×9×9 вокруг точки проверки.
//
// Каждая запись помечается номером поколения. Клетка, чьё поколение не
// совпадает с текущим, читается как препятствие, поэтому данные прошлой
// проверки недоступны даже при повторном использовании сетки.
// Поле не предназначено для одновременного использования из нескольких горутин.
type DistanceField struct {
	cells    [fieldCells]fieldCell
	gen      uint32
	origin   vec.Vec3
	frontier []int
	next     []int
}

// NewDistanceField создаёт пустое поле
func NewDistanceField() *DistanceField {
	return &DistanceField{
		frontier: make([]int, 0, 64),
		next:     make([]int, 0, 64),
	}
}

func fieldIndex(x, y, z int) int {
	return (x+Radius)*fieldEdge*fieldEdge + (y+Radius)*fieldEdge + (z + Radius)
}

func fieldOffset(i int) (x, y, z int) {
	x = i/(fieldEdge*fieldEdge) - Radius
	y = (i/fieldEdge)%fieldEdge - Radius
	z = i%fieldEdge - Radius
	return
}

func inWindow(x, y, z int) bool {
	return x >= -Radius && x <= Radius &&
		y >= -Radius && y <= Radius &&
		z >= -Radius && z <= Radius
}

// nextGeneration открывает новое поколение. При переполнении счётчика
// сетка очищается, чтобы нулевое поколение не совпало со старыми записями.
func (f *DistanceField) nextGeneration() {
	f.gen++
	if f.gen == 0 {
		f.cells = [fieldCells]fieldCell{}
		f.gen = 1
	}
	f.frontier = f.frontier[:0]
	f.next = f.next[:0]
}

func (f *DistanceField) set(i int, state CellState, dist int8) {
	f.cells[i] = fieldCell{gen: f.gen, state: state, dist: dist}
}

func (f *DistanceField) get(i int) fieldCell {
	c := f.cells[i]
	if c.gen != f.gen {
		return fieldCell{}
	}
	return c
}

// Populate классифицирует все 729 клеток окна вокруг origin.
// Опоры сразу становятся источниками с расстоянием 0.
func (f *DistanceField) Populate(cls Classifier, origin vec.Vec3) {
	f.nextGeneration()
	f.origin = origin

	for i := 0; i < fieldCells; i++ {
		x, y, z := fieldOffset(i)
		pos := vec.Vec3{X: origin.X + x, Y: origin.Y + y, Z: origin.Z + z}

		switch cls.Classify(pos) {
		case Anchor:
			f.set(i, StateAnchor, 0)
			f.frontier = append(f.frontier, i)
		case Foliage:
			f.set(i, StatePending, -1)
		default:
			f.set(i, StateObstacle, -1)
		}
	}
}

// Relax выполняет поуровневый обход в ширину от всех опор сразу.
// На шаге d каждая клетка уровня d-1 присваивает расстояние d ещё не
// разрешённым соседям-листьям. Присвоение однократное.
func (f *DistanceField) Relax(adj Adjacency) {
	offsets := Offsets(adj)

	for d := 1; d <= MaxDistance && len(f.frontier) > 0; d++ {
		f.next = f.next[:0]
		for _, i := range f.frontier {
			x, y, z := fieldOffset(i)
			for _, off := range offsets {
				tx, ty, tz := x+off.X, y+off.Y, z+off.Z
				if !inWindow(tx, ty, tz) {
					continue
				}
				ti := fieldIndex(tx, ty, tz)
				if f.get(ti).state != StatePending {
					continue
				}
				f.set(ti, StateResolved, int8(d))
				f.next = append(f.next, ti)
			}
		}
		f.frontier, f.next = f.next, f.frontier
	}
}

// State возвращает состояние клетки по смещению от origin.
// Смещения вне окна читаются как препятствие.
func (f *DistanceField) State(off vec.Vec3) CellState {
	if !inWindow(off.X, off.Y, off.Z) {
		return StateObstacle
	}
	return f.get(fieldIndex(off.X, off.Y, off.Z)).state
}

// Distance возвращает разрешённое расстояние клетки (0 для опор).
func (f *DistanceField) Distance(off vec.Vec3) (int, bool) {
	if !inWindow(off.X, off.Y, off.Z) {
		return -1, false
	}
	c := f.get(fieldIndex(off.X, off.Y, off.Z))
	switch c.state {
	case StateAnchor, StateResolved:
		return int(c.dist), true
	default:
		return -1, false
	}
}

// Origin - позиция, вокруг которой заполнено поле
func (f *DistanceField) Origin() vec.Vec3 {
	return f.origin
}
