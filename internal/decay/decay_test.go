package decay

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWorld - мир на карте для тестов движка
type fakeWorld struct {
	kinds map[vec.Vec3]CellKind

	checked []vec.Vec3
	spawned []block.ItemStack
	removed []vec.Vec3
	effects []vec.Vec3
	drops   []block.ItemStack

	spawnErr  error
	removeErr error
	effectErr error

	// loaded - максимальный загруженный радиус; отрицательный - всё загружено
	loaded      int
	loadQueries []int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{kinds: make(map[vec.Vec3]CellKind), loaded: -1}
}

func (w *fakeWorld) put(kind CellKind, positions ...vec.Vec3) *fakeWorld {
	for _, p := range positions {
		w.kinds[p] = kind
	}
	return w
}

func (w *fakeWorld) Classify(pos vec.Vec3) CellKind { return w.kinds[pos] }
func (w *fakeWorld) MarkChecked(pos vec.Vec3)       { w.checked = append(w.checked, pos) }
func (w *fakeWorld) Drops(vec.Vec3) []block.ItemStack {
	return w.drops
}

func (w *fakeWorld) SpawnDrop(_ vec.Vec3, item block.ItemStack) error {
	if w.spawnErr != nil {
		return w.spawnErr
	}
	w.spawned = append(w.spawned, item)
	return nil
}

func (w *fakeWorld) Remove(pos vec.Vec3) error {
	if w.removeErr != nil {
		return w.removeErr
	}
	delete(w.kinds, pos)
	w.removed = append(w.removed, pos)
	return nil
}

func (w *fakeWorld) PlayBreakEffect(pos vec.Vec3) error {
	if w.effectErr != nil {
		return w.effectErr
	}
	w.effects = append(w.effects, pos)
	return nil
}

func (w *fakeWorld) IsAreaLoaded(_ vec.Vec3, radius int) bool {
	w.loadQueries = append(w.loadQueries, radius)
	return w.loaded < 0 || radius <= w.loaded
}

func (w *fakeWorld) mutated() bool {
	return len(w.checked)+len(w.spawned)+len(w.removed)+len(w.effects) > 0
}

func v(x, y, z int) vec.Vec3 { return vec.Vec3{X: x, Y: y, Z: z} }

func TestOffsets(t *testing.T) {
	orth := Offsets(Orthogonal6)
	ext := Offsets(Extended18)

	require.Len(t, orth, 6)
	require.Len(t, ext, 18)
	assert.Equal(t, orth, ext[:6], "расширенный набор начинается с граней")

	seen := make(map[vec.Vec3]bool)
	for i, off := range ext {
		nonZero := 0
		for _, c := range []int{off.X, off.Y, off.Z} {
			assert.LessOrEqual(t, c*c, 1)
			if c != 0 {
				nonZero++
			}
		}
		if i < 6 {
			assert.Equal(t, 1, nonZero, "грань %v", off)
		} else {
			assert.Equal(t, 2, nonZero, "ребро %v", off)
		}
		assert.False(t, seen[off], "повтор %v", off)
		seen[off] = true
	}

	assert.Equal(t, orth, Offsets(Adjacency(42)), "неизвестная модель - грани")
}

func TestParseAdjacency(t *testing.T) {
	adj, err := ParseAdjacency("extended18")
	require.NoError(t, err)
	assert.Equal(t, Extended18, adj)
	assert.Equal(t, "extended18", adj.String())

	adj, err = ParseAdjacency("")
	require.NoError(t, err)
	assert.Equal(t, Orthogonal6, adj)

	_, err = ParseAdjacency("corners26")
	assert.Error(t, err)
}

func TestScenarioA_ChainOfFourPersists(t *testing.T) {
	w := newFakeWorld().
		put(Anchor, v(0, 0, 0)).
		put(Foliage, v(1, 0, 0), v(2, 0, 0), v(3, 0, 0), v(4, 0, 0))

	res := NewEngine(nil).Check(w, Request{Origin: v(4, 0, 0), Adjacency: Orthogonal6})

	assert.Equal(t, Persist, res.Outcome)
	assert.Equal(t, 4, res.Distance)
	assert.Equal(t, []vec.Vec3{v(4, 0, 0)}, w.checked)
	assert.Empty(t, w.removed)
}

func TestScenarioB_ChainOfFiveDecays(t *testing.T) {
	w := newFakeWorld().
		put(Anchor, v(0, 0, 0)).
		put(Foliage, v(1, 0, 0), v(2, 0, 0), v(3, 0, 0), v(4, 0, 0), v(5, 0, 0))
	w.drops = []block.ItemStack{{Item: block.SaplingItemID(block.Fir), Count: 1}}

	res := NewEngine(nil).Check(w, Request{Origin: v(5, 0, 0), Adjacency: Orthogonal6})

	assert.Equal(t, Decay, res.Outcome)
	assert.Equal(t, -1, res.Distance)
	assert.Equal(t, []vec.Vec3{v(5, 0, 0)}, w.removed)
	assert.Equal(t, []vec.Vec3{v(5, 0, 0)}, w.effects)
	assert.Equal(t, w.drops, w.spawned)
	assert.Empty(t, w.checked)
}

func TestScenarioC_EdgeDiagonal(t *testing.T) {
	build := func() *fakeWorld {
		return newFakeWorld().put(Anchor, v(0, 0, 0)).put(Foliage, v(1, 1, 0))
	}
	e := NewEngine(nil)

	orth := build()
	res := e.Check(orth, Request{Origin: v(1, 1, 0), Adjacency: Orthogonal6})
	assert.Equal(t, Decay, res.Outcome)

	ext := build()
	res = e.Check(ext, Request{Origin: v(1, 1, 0), Adjacency: Extended18})
	assert.Equal(t, Persist, res.Outcome)
	assert.Equal(t, 1, res.Distance)
}

func TestCornerDiagonalNeverConnects(t *testing.T) {
	w := newFakeWorld().put(Anchor, v(0, 0, 0)).put(Foliage, v(1, 1, 1))
	res := NewEngine(nil).Inspect(w, Request{Origin: v(1, 1, 1), Adjacency: Extended18})
	assert.Equal(t, Decay, res.Outcome)
}

func TestNoAnchorInWindowDecays(t *testing.T) {
	w := newFakeWorld()
	for x := -4; x <= 4; x++ {
		for z := -4; z <= 4; z++ {
			w.put(Foliage, v(x, 0, z))
		}
	}
	// Опора сразу за границей окна не учитывается
	w.put(Anchor, v(5, 0, 0))

	res := NewEngine(nil).Inspect(w, Request{Origin: v(0, 0, 0), Adjacency: Extended18})
	assert.Equal(t, Decay, res.Outcome)
}

func TestMinimalDistance(t *testing.T) {
	// Длинный путь через петлю и короткий прямой
	w := newFakeWorld().
		put(Anchor, v(0, 0, 0)).
		put(Foliage, v(0, 1, 0), v(0, 2, 0), v(1, 2, 0), v(2, 2, 0), v(2, 1, 0), v(2, 0, 0), v(1, 0, 0))

	res := NewEngine(nil).Inspect(w, Request{Origin: v(2, 0, 0), Adjacency: Orthogonal6})
	assert.Equal(t, Persist, res.Outcome)
	assert.Equal(t, 2, res.Distance)
}

func TestObstacleBlocksPropagation(t *testing.T) {
	w := newFakeWorld().
		put(Anchor, v(0, 0, 0)).
		put(Foliage, v(2, 0, 0))

	res := NewEngine(nil).Inspect(w, Request{Origin: v(2, 0, 0), Adjacency: Orthogonal6})
	assert.Equal(t, Decay, res.Outcome, "через препятствие расстояние не распространяется")
}

func TestOriginNotFoliage(t *testing.T) {
	w := newFakeWorld().put(Anchor, v(0, 0, 0))
	e := NewEngine(nil)

	res := e.Check(w, Request{Origin: v(0, 0, 0)})
	assert.Equal(t, NotFoliage, res.Outcome)
	assert.Equal(t, 0, res.Distance)

	res = e.Check(w, Request{Origin: v(3, 3, 3)})
	assert.Equal(t, NotFoliage, res.Outcome)
	assert.False(t, w.mutated())
}

func TestCheckIsIdempotent(t *testing.T) {
	w := newFakeWorld().
		put(Anchor, v(0, 0, 0)).
		put(Foliage, v(0, 1, 0), v(0, 2, 0), v(1, 2, 0))
	e := NewEngine(nil)
	req := Request{Origin: v(1, 2, 0), Adjacency: Orthogonal6}

	first := e.Check(w, req)
	second := e.Check(w, req)
	assert.Equal(t, first, second)
	assert.Equal(t, Persist, second.Outcome)
	assert.Empty(t, w.removed)
}

func TestMutationEffectsAreIndependent(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	w := newFakeWorld().put(Foliage, v(0, 0, 0))
	w.drops = []block.ItemStack{{Item: block.SaplingItemID(block.Palm), Count: 1}}
	w.spawnErr = errors.New("entity limit")
	w.effectErr = errors.New("no viewers")

	res := NewEngine(m).Check(w, Request{Origin: v(0, 0, 0)})

	assert.Equal(t, Decay, res.Outcome)
	assert.Equal(t, []vec.Vec3{v(0, 0, 0)}, w.removed, "удаление выполняется несмотря на ошибку выпадения")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationErrors().WithLabelValues("spawn_drop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationErrors().WithLabelValues("break_effect")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MutationErrors().WithLabelValues("remove")))

	w2 := newFakeWorld().put(Foliage, v(0, 0, 0))
	w2.removeErr = errors.New("chunk unloaded")
	NewEngine(m).Check(w2, Request{Origin: v(0, 0, 0)})
	assert.Equal(t, []vec.Vec3{v(0, 0, 0)}, w2.effects, "эффект воспроизводится несмотря на ошибку удаления")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationErrors().WithLabelValues("remove")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checks().WithLabelValues("decay", "orthogonal6")))
}

func TestStaleFieldIsUnreadable(t *testing.T) {
	f := NewDistanceField()

	full := newFakeWorld().put(Anchor, v(0, 0, 0)).put(Foliage, v(1, 0, 0))
	f.Populate(full, v(0, 0, 0))
	f.Relax(Orthogonal6)
	d, ok := f.Distance(v(1, 0, 0))
	require.True(t, ok)
	require.Equal(t, 1, d)

	// Новое поколение без вызова Relax: старые расстояния не видны
	f.Populate(newFakeWorld().put(Foliage, v(1, 0, 0)), v(0, 0, 0))
	_, ok = f.Distance(v(1, 0, 0))
	assert.False(t, ok)
	assert.Equal(t, StatePending, f.State(v(1, 0, 0)))
	assert.Equal(t, StateObstacle, f.State(v(0, 0, 0)))
}

func TestFieldGenerationWrap(t *testing.T) {
	f := NewDistanceField()
	f.Populate(newFakeWorld().put(Anchor, v(0, 0, 0)), v(0, 0, 0))
	f.gen = ^uint32(0)
	f.cells[fieldIndex(0, 0, 0)].gen = 1

	f.nextGeneration()
	assert.Equal(t, uint32(1), f.gen)
	assert.Equal(t, StateObstacle, f.State(v(0, 0, 0)))
}

func TestFieldOutsideWindow(t *testing.T) {
	f := NewDistanceField()
	f.Populate(newFakeWorld(), v(10, 10, 10))
	assert.Equal(t, StateObstacle, f.State(v(5, 0, 0)))
	_, ok := f.Distance(v(0, -5, 0))
	assert.False(t, ok)
	assert.Equal(t, v(10, 10, 10), f.Origin())
}

func TestFieldIndexRoundTrip(t *testing.T) {
	for i := 0; i < fieldCells; i++ {
		x, y, z := fieldOffset(i)
		require.True(t, inWindow(x, y, z))
		require.Equal(t, i, fieldIndex(x, y, z))
	}
}

// referenceDistance - прямой BFS от origin по листве внутри окна.
func referenceDistance(w *fakeWorld, origin vec.Vec3, adj Adjacency) int {
	type node struct {
		p vec.Vec3
		d int
	}
	seen := map[vec.Vec3]bool{origin: true}
	queue := []node{{origin, 0}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.d >= MaxDistance {
			continue
		}
		for _, off := range Offsets(adj) {
			p := n.p.Add(off)
			rel := p.Sub(origin)
			if !inWindow(rel.X, rel.Y, rel.Z) || seen[p] {
				continue
			}
			seen[p] = true
			switch w.kinds[p] {
			case Anchor:
				return n.d + 1
			case Foliage:
				queue = append(queue, node{p, n.d + 1})
			}
		}
	}
	return -1
}

func TestReachabilityMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := NewEngine(nil)

	for iter := 0; iter < 300; iter++ {
		w := newFakeWorld()
		for x := -4; x <= 4; x++ {
			for y := -4; y <= 4; y++ {
				for z := -4; z <= 4; z++ {
					switch r := rng.Intn(100); {
					case r < 3:
						w.put(Anchor, v(x, y, z))
					case r < 45:
						w.put(Foliage, v(x, y, z))
					}
				}
			}
		}
		w.put(Foliage, v(0, 0, 0))

		for _, adj := range []Adjacency{Orthogonal6, Extended18} {
			want := referenceDistance(w, v(0, 0, 0), adj)
			got := e.Inspect(w, Request{Origin: v(0, 0, 0), Adjacency: adj})
			require.Equal(t, want, got.Distance, "итерация %d, %s", iter, adj)
			if want >= 0 {
				require.Equal(t, Persist, got.Outcome)
			} else {
				require.Equal(t, Decay, got.Outcome)
			}
		}
	}
}

func TestBlockClassifier(t *testing.T) {
	reader := blockReaderFunc(func(pos vec.Vec3) (block.BlockID, bool) {
		switch pos {
		case v(0, 0, 0):
			return block.LogBlockID(block.Sakura), true
		case v(1, 0, 0):
			return block.LeavesBlockID(block.Sakura), true
		case v(2, 0, 0):
			return block.StoneBlockID, true
		}
		return block.LogBlockID(block.Fir), false
	})

	cls := NewBlockClassifier(reader, nil)
	assert.Equal(t, Anchor, cls.Classify(v(0, 0, 0)))
	assert.Equal(t, Foliage, cls.Classify(v(1, 0, 0)))
	assert.Equal(t, Obstacle, cls.Classify(v(2, 0, 0)))
	assert.Equal(t, Obstacle, cls.Classify(v(9, 9, 9)), "незагруженная позиция - препятствие")

	table := KindTable{block.StoneBlockID: Anchor}
	cls = NewBlockClassifier(reader, table)
	assert.Equal(t, Anchor, cls.Classify(v(2, 0, 0)))
	assert.Equal(t, Obstacle, cls.Classify(v(0, 0, 0)))
}

type blockReaderFunc func(pos vec.Vec3) (block.BlockID, bool)

func (f blockReaderFunc) BlockIDAt(pos vec.Vec3) (block.BlockID, bool) { return f(pos) }

func TestDefaultKindTable(t *testing.T) {
	table := DefaultKindTable()
	for _, variant := range block.WoodVariants() {
		assert.Equal(t, Anchor, table.Lookup(block.LogBlockID(variant)))
		assert.Equal(t, Foliage, table.Lookup(block.LeavesBlockID(variant)))
		assert.Equal(t, Obstacle, table.Lookup(block.SaplingItemID(variant)))
	}
	assert.Equal(t, Obstacle, table.Lookup(block.AirBlockID))
	assert.Equal(t, Obstacle, table.Lookup(block.WaterBlockID))
}
