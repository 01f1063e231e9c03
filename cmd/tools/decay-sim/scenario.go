package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world"
	"github.com/annel0/leafdecay/internal/world/block"
	"github.com/annel0/leafdecay/internal/world/block/implementations"
	"gopkg.in/yaml.v3"
)

// defaultScenario - ель и пальма; на 20-м тике ель срубают
const defaultScenario = `
name: grove
height: 48
chunk_radius: 1
trees:
  - {x: -6, y: 8, z: 0, variant: fir, height: 5}
  - {x: 6, y: 8, z: 0, variant: palm, height: 4}
blocks:
  - {x: -6, y: 16, z: 3, block: fir_leaves, player_placed: true}
edits:
  - {tick: 20, x: -6, y: 8, z: 0, block: air}
  - {tick: 20, x: -6, y: 9, z: 0, block: air}
  - {tick: 20, x: -6, y: 10, z: 0, block: air}
  - {tick: 20, x: -6, y: 11, z: 0, block: air}
  - {tick: 20, x: -6, y: 12, z: 0, block: air}
`

// Point - координаты блока в сценарии
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

func (p Point) Vec() vec.Vec3 { return vec.Vec3{X: p.X, Y: p.Y, Z: p.Z} }

type PlannedTree struct {
	Point   `yaml:",inline"`
	Variant string `yaml:"variant"`
	Height  int    `yaml:"height"`
}

type Placement struct {
	Point        `yaml:",inline"`
	Block        string `yaml:"block"`
	PlayerPlaced bool   `yaml:"player_placed"`
}

// TimedEdit - изменение блока перед указанным тиком
type TimedEdit struct {
	Tick      uint64 `yaml:"tick"`
	Placement `yaml:",inline"`
}

// Scenario - начальное состояние мира и запланированные изменения
type Scenario struct {
	Name        string        `yaml:"name"`
	Height      int           `yaml:"height"`
	ChunkRadius int           `yaml:"chunk_radius"`
	Chance      float64       `yaml:"chance"`
	Trees       []PlannedTree `yaml:"trees"`
	Blocks      []Placement   `yaml:"blocks"`
	Edits       []TimedEdit   `yaml:"edits"`
}

// ParseScenario разбирает YAML и заполняет значения по умолчанию
func ParseScenario(data []byte) (*Scenario, error) {
	// Незаданные поля сохраняют значения по умолчанию
	sc := Scenario{
		Height:      64,
		ChunkRadius: 1,
		Chance:      decay.DefaultSchedulerConfig().Chance,
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("разбор сценария: %w", err)
	}

	switch {
	case sc.Height < 16:
		return nil, fmt.Errorf("высота мира %d меньше 16", sc.Height)
	case sc.ChunkRadius < 0:
		return nil, fmt.Errorf("отрицательный chunk_radius %d", sc.ChunkRadius)
	case sc.Chance < 0 || sc.Chance > 1:
		return nil, fmt.Errorf("chance %v вне [0,1]", sc.Chance)
	}
	for _, t := range sc.Trees {
		if _, err := block.ParseWoodVariant(t.Variant); err != nil {
			return nil, err
		}
	}
	for _, b := range sc.Blocks {
		if _, ok := block.ByName(b.Block); !ok {
			return nil, fmt.Errorf("неизвестный блок %q", b.Block)
		}
	}
	for _, e := range sc.Edits {
		if _, ok := block.ByName(e.Block); !ok {
			return nil, fmt.Errorf("неизвестный блок %q", e.Block)
		}
		if e.Tick == 0 {
			return nil, errors.New("тик изменения начинается с 1")
		}
	}

	sort.SliceStable(sc.Edits, func(i, j int) bool { return sc.Edits[i].Tick < sc.Edits[j].Tick })
	return &sc, nil
}

// LoadScenario читает сценарий из файла; пустой путь - встроенный сценарий
func LoadScenario(path string) (*Scenario, error) {
	if path == "" {
		return ParseScenario([]byte(defaultScenario))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// Summary - итог симуляции
type Summary struct {
	Ticks     int            `json:"ticks"`
	Checked   int            `json:"checked"`
	Persisted int            `json:"persisted"`
	Decayed   int            `json:"decayed"`
	Skipped   int            `json:"skipped"`
	Foliage   int            `json:"foliage_left"`
	Saplings  map[string]int `json:"saplings"`
}

// Simulation прогоняет сценарий тик за тиком
type Simulation struct {
	sc    *Scenario
	world *world.WorldManager
	bus   eventbus.EventBus
}

// NewSimulation строит мир сценария
func NewSimulation(sc *Scenario, seed int64) (*Simulation, error) {
	bus := eventbus.NewMemoryBus(1 << 14)

	cfg := world.DefaultConfig()
	cfg.Height = sc.Height
	cfg.Seed = seed
	cfg.Source = "decay-sim"
	cfg.Scheduler.Chance = sc.Chance

	wm := world.NewWorldManager(cfg, decay.NewEngine(nil), bus)
	r := sc.ChunkRadius
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			wm.LoadChunk(vec.Vec2{X: x, Y: z})
		}
	}

	sim := &Simulation{sc: sc, world: wm, bus: bus}
	for _, t := range sc.Trees {
		v, _ := block.ParseWoodVariant(t.Variant)
		height := t.Height
		if height == 0 {
			height = 5
		}
		if err := wm.PlantTree(t.Vec(), v, height); err != nil {
			sim.Close()
			return nil, fmt.Errorf("дерево %s в %s: %w", t.Variant, t.Vec(), err)
		}
	}
	for _, b := range sc.Blocks {
		if err := sim.apply(b); err != nil {
			sim.Close()
			return nil, err
		}
	}
	return sim, nil
}

func (s *Simulation) apply(b Placement) error {
	id, _ := block.ByName(b.Block)
	var meta block.Metadata
	if b.PlayerPlaced && block.SupportOf(id) == block.SupportFoliage {
		meta = implementations.PlayerPlacedMetadata()
	}
	if err := s.world.SetBlockWithMetadata(b.Vec(), id, meta); err != nil {
		return fmt.Errorf("блок %s в %s: %w", b.Block, b.Vec(), err)
	}
	return nil
}

// World возвращает мир симуляции
func (s *Simulation) World() *world.WorldManager { return s.world }

// Close освобождает шину событий
func (s *Simulation) Close() { _ = s.bus.Close() }

// Run выполняет ticks тиков. report вызывается после каждого тика, может быть nil.
func (s *Simulation) Run(ctx context.Context, ticks int, report func(world.TickStats)) (Summary, error) {
	sum := Summary{Saplings: make(map[string]int)}
	edits := s.sc.Edits

	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		next := s.world.CurrentTick() + 1
		for len(edits) > 0 && edits[0].Tick <= next {
			if err := s.apply(edits[0].Placement); err != nil {
				return sum, err
			}
			edits = edits[1:]
		}

		st := s.world.Step(ctx)
		sum.Ticks++
		sum.Checked += st.Checked
		sum.Persisted += st.Persisted
		sum.Decayed += st.Decayed
		sum.Skipped += st.SkippedChance + st.SkippedUnloaded
		if report != nil {
			report(st)
		}
	}

	for _, item := range s.world.Items() {
		for _, v := range block.WoodVariants() {
			if item.Item == block.SaplingItemID(v) {
				sum.Saplings[v.String()] += item.Count
			}
		}
	}
	sum.Foliage = s.countFoliage()
	return sum, nil
}

func (s *Simulation) countFoliage() int {
	n := 0
	for _, coords := range s.world.LoadedChunks() {
		for x := 0; x < world.ChunkSize; x++ {
			for z := 0; z < world.ChunkSize; z++ {
				for y := 0; y < s.sc.Height; y++ {
					pos := vec.Vec3{X: coords.X*world.ChunkSize + x, Y: y, Z: coords.Y*world.ChunkSize + z}
					if id, ok := s.world.BlockIDAt(pos); ok && block.SupportOf(id) == block.SupportFoliage {
						n++
					}
				}
			}
		}
	}
	return n
}
