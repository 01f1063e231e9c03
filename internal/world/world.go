package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/logging"
	"github.com/annel0/leafdecay/internal/observability"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
	_ "github.com/annel0/leafdecay/internal/world/block/implementations"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrChunkNotLoaded = errors.New("чанк не загружен")
	ErrOutOfBounds    = errors.New("позиция вне высоты мира")
	ErrNotFoliage     = errors.New("в позиции нет листвы")
	ErrNotDecayable   = errors.New("листва поставлена игроком и не опадает")
)

// Config - параметры мира
type Config struct {
	Height    int
	Seed      int64
	TPS       int
	Source    string // имя узла в событиях шины
	Scheduler decay.SchedulerConfig
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		Height:    128,
		Seed:      1,
		TPS:       20,
		Source:    "leafdecay",
		Scheduler: decay.DefaultSchedulerConfig(),
	}
}

// WorldManager управляет чанками, блоками и тиками мира.
//
// Все изменения мира выполняются под writeMu одним писателем: тик, установка
// блоков и принудительные проверки не пересекаются. Чтение блоков возможно
// параллельно через блокировки чанков.
type WorldManager struct {
	cfg Config

	mu       sync.RWMutex
	chunks   map[vec.Vec2]*Chunk // загруженные
	unloaded map[vec.Vec2]*Chunk // выгруженные, данные сохраняются в памяти

	writeMu    sync.Mutex
	candidates map[vec.Vec3]struct{} // листва с взведённым битом проверки
	scheduled  map[vec.Vec3]struct{} // разовые обновления на следующий тик

	itemsMu sync.RWMutex
	items   map[string]DroppedItem

	engine     *decay.Engine
	scheduler  *decay.Scheduler
	classifier decay.Classifier
	dropRng    *rand.Rand
	tickRng    *rand.Rand // случайность поведений блоков (рост травы)

	bus    eventbus.EventBus
	logger *logging.Logger

	tick      atomic.Uint64
	persisted atomic.Uint64
	decayed   atomic.Uint64
}

// NewWorldManager создаёт пустой мир. bus == nil - события идут в глобальную шину.
func NewWorldManager(cfg Config, engine *decay.Engine, bus eventbus.EventBus) *WorldManager {
	def := DefaultConfig()
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.TPS <= 0 {
		cfg.TPS = def.TPS
	}
	if cfg.Source == "" {
		cfg.Source = def.Source
	}
	if cfg.Scheduler == (decay.SchedulerConfig{}) {
		cfg.Scheduler = def.Scheduler
	}
	if engine == nil {
		engine = decay.NewEngine(nil)
	}

	wm := &WorldManager{
		cfg:        cfg,
		chunks:     make(map[vec.Vec2]*Chunk),
		unloaded:   make(map[vec.Vec2]*Chunk),
		candidates: make(map[vec.Vec3]struct{}),
		scheduled:  make(map[vec.Vec3]struct{}),
		items:      make(map[string]DroppedItem),
		engine:     engine,
		scheduler:  decay.NewScheduler(engine, cfg.Scheduler, rand.New(rand.NewSource(cfg.Seed))),
		dropRng:    rand.New(rand.NewSource(cfg.Seed ^ 0x5eed)),
		tickRng:    rand.New(rand.NewSource(cfg.Seed ^ 0x7a11)),
		bus:        bus,
		logger:     logging.GetWorldLogger(),
	}
	wm.classifier = decay.NewBlockClassifier(wm, decay.DefaultKindTable())
	return wm
}

// Config возвращает параметры мира
func (wm *WorldManager) Config() Config { return wm.cfg }

// Scheduler возвращает планировщик опадания
func (wm *WorldManager) Scheduler() *decay.Scheduler { return wm.scheduler }

// CurrentTick возвращает номер последнего выполненного тика
func (wm *WorldManager) CurrentTick() uint64 { return wm.tick.Load() }

//================ Чанки =================//

// LoadChunk загружает чанк: восстанавливает выгруженный или создаёт пустой.
func (wm *WorldManager) LoadChunk(coords vec.Vec2) *Chunk {
	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()
	return wm.loadChunkLocked(coords)
}

func (wm *WorldManager) loadChunkLocked(coords vec.Vec2) *Chunk {
	wm.mu.Lock()
	if c, ok := wm.chunks[coords]; ok {
		wm.mu.Unlock()
		return c
	}
	c, restored := wm.unloaded[coords]
	if restored {
		delete(wm.unloaded, coords)
	} else {
		c = NewChunk(coords, wm.cfg.Height)
	}
	wm.chunks[coords] = c
	wm.mu.Unlock()

	if restored {
		for _, local := range c.TickablePositions() {
			wm.refreshCandidate(c.WorldPos(local))
		}
	}
	wm.logger.Debug("Чанк %v загружен (восстановлен: %v)", coords, restored)
	return c
}

// UnloadChunk выгружает чанк. Листва в нём перестаёт быть кандидатом до загрузки.
func (wm *WorldManager) UnloadChunk(coords vec.Vec2) bool {
	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()

	wm.mu.Lock()
	c, ok := wm.chunks[coords]
	if ok {
		delete(wm.chunks, coords)
		wm.unloaded[coords] = c
	}
	wm.mu.Unlock()
	if !ok {
		return false
	}

	for pos := range wm.candidates {
		if pos.ChunkCoords() == coords {
			delete(wm.candidates, pos)
		}
	}
	for pos := range wm.scheduled {
		if pos.ChunkCoords() == coords {
			delete(wm.scheduled, pos)
		}
	}
	wm.logger.Debug("Чанк %v выгружен", coords)
	return true
}

// IsChunkLoaded сообщает, загружен ли чанк
func (wm *WorldManager) IsChunkLoaded(coords vec.Vec2) bool {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	_, ok := wm.chunks[coords]
	return ok
}

// LoadedChunks возвращает отсортированные координаты загруженных чанков
func (wm *WorldManager) LoadedChunks() []vec.Vec2 {
	wm.mu.RLock()
	out := make([]vec.Vec2, 0, len(wm.chunks))
	for coords := range wm.chunks {
		out = append(out, coords)
	}
	wm.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// IsAreaLoaded проверяет, что все чанки куба радиуса radius вокруг center
// загружены. Куб, целиком лежащий выше или ниже мира, не загружен.
func (wm *WorldManager) IsAreaLoaded(center vec.Vec3, radius int) bool {
	if center.Y+radius < 0 || center.Y-radius >= wm.cfg.Height {
		return false
	}

	minX, maxX := (center.X-radius)>>4, (center.X+radius)>>4
	minZ, maxZ := (center.Z-radius)>>4, (center.Z+radius)>>4

	wm.mu.RLock()
	defer wm.mu.RUnlock()
	for cx := minX; cx <= maxX; cx++ {
		for cz := minZ; cz <= maxZ; cz++ {
			if _, ok := wm.chunks[vec.Vec2{X: cx, Y: cz}]; !ok {
				return false
			}
		}
	}
	return true
}

func (wm *WorldManager) chunkAt(pos vec.Vec3) (*Chunk, vec.Vec3, error) {
	if pos.Y < 0 || pos.Y >= wm.cfg.Height {
		return nil, vec.Vec3{}, fmt.Errorf("%w: %s", ErrOutOfBounds, pos)
	}
	wm.mu.RLock()
	c, ok := wm.chunks[pos.ChunkCoords()]
	wm.mu.RUnlock()
	if !ok {
		return nil, vec.Vec3{}, fmt.Errorf("%w: %s", ErrChunkNotLoaded, pos)
	}
	return c, pos.LocalInChunk(), nil
}

//================ Блоки =================//

// BlockIDAt возвращает ID блока; ok == false для незагруженной позиции.
func (wm *WorldManager) BlockIDAt(pos vec.Vec3) (block.BlockID, bool) {
	c, local, err := wm.chunkAt(pos)
	if err != nil {
		return block.AirBlockID, false
	}
	return c.GetBlock(local), true
}

// GetBlock возвращает блок вместе с копией метаданных
func (wm *WorldManager) GetBlock(pos vec.Vec3) (Block, error) {
	c, local, err := wm.chunkAt(pos)
	if err != nil {
		return Block{}, err
	}
	return Block{ID: c.GetBlock(local), Payload: c.GetBlockMetadata(local)}, nil
}

// SetBlock устанавливает блок с метаданными по умолчанию
func (wm *WorldManager) SetBlock(pos vec.Vec3, id block.BlockID) error {
	return wm.SetBlockWithMetadata(pos, id, nil)
}

// SetBlockWithMetadata устанавливает блок. Для старого блока вызывается
// OnBreak, для нового - OnPlace.
func (wm *WorldManager) SetBlockWithMetadata(pos vec.Vec3, id block.BlockID, meta block.Metadata) error {
	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()
	return wm.setBlockLocked(pos, id, meta, causeSet)
}

// SetBlockMetadataValue меняет одно значение метаданных блока
func (wm *WorldManager) SetBlockMetadataValue(pos vec.Vec3, key string, value interface{}) error {
	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()
	return wm.setMetaLocked(pos, key, value)
}

// ApplyRemoteBlock применяет изменение блока, пришедшее с другого узла.
// Событие BlockEvent повторно не публикуется.
func (wm *WorldManager) ApplyRemoteBlock(ev eventbus.BlockEvent) error {
	pos := vec.Vec3{X: ev.Position.X, Y: ev.Position.Y, Z: ev.Position.Z}
	var meta block.Metadata
	if len(ev.Metadata) > 0 {
		meta = block.Metadata(ev.Metadata)
	}

	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()
	return wm.setBlockLocked(pos, block.BlockID(ev.BlockID), meta, causeSync)
}

func (wm *WorldManager) setBlockLocked(pos vec.Vec3, id block.BlockID, meta block.Metadata, cause string) error {
	c, local, err := wm.chunkAt(pos)
	if err != nil {
		return err
	}

	prev := c.SetBlock(local, id, meta)
	api := wm.blockAPI()

	if prev != id {
		if behavior, ok := block.Get(prev); ok {
			behavior.OnBreak(api, pos)
		}
	}
	if behavior, ok := block.Get(id); ok {
		behavior.OnPlace(api, pos)
	}
	wm.refreshCandidate(pos)

	if cause != causeSync {
		wm.publishBlock(pos, prev, id, c.GetBlockMetadata(local), cause)
	}
	return nil
}

func (wm *WorldManager) setMetaLocked(pos vec.Vec3, key string, value interface{}) error {
	c, local, err := wm.chunkAt(pos)
	if err != nil {
		return err
	}
	c.SetBlockMetadata(local, key, value)
	wm.refreshCandidate(pos)
	return nil
}

// decayableAt возвращает поведение листвы для ID
func decayableAt(id block.BlockID) (block.Decayable, bool) {
	behavior, ok := block.Get(id)
	if !ok {
		return nil, false
	}
	d, ok := behavior.(block.Decayable)
	return d, ok
}

// refreshCandidate пересчитывает членство позиции в наборе кандидатов.
func (wm *WorldManager) refreshCandidate(pos vec.Vec3) {
	c, local, err := wm.chunkAt(pos)
	if err != nil {
		delete(wm.candidates, pos)
		return
	}
	d, ok := decayableAt(c.GetBlock(local))
	if ok && d.NeedsDecayCheck(c.GetBlockMetadata(local)) {
		wm.candidates[pos] = struct{}{}
		return
	}
	delete(wm.candidates, pos)
}

// markFoliageLocked взводит бит проверки у опадающей листвы в кубе радиуса radius.
func (wm *WorldManager) markFoliageLocked(center vec.Vec3, radius int) {
	for x := -radius; x <= radius; x++ {
		for y := -radius; y <= radius; y++ {
			for z := -radius; z <= radius; z++ {
				pos := vec.Vec3{X: center.X + x, Y: center.Y + y, Z: center.Z + z}
				c, local, err := wm.chunkAt(pos)
				if err != nil || block.SupportOf(c.GetBlock(local)) != block.SupportFoliage {
					continue
				}
				if !block.MetaBool(c.GetBlockMetadata(local), block.MetaDecayable, true) {
					continue
				}
				_ = wm.setMetaLocked(pos, block.MetaCheckDecay, true)
			}
		}
	}
}

// Candidates возвращает отсортированный список листвы, ждущей проверки
func (wm *WorldManager) Candidates() []vec.Vec3 {
	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()
	return wm.sortedCandidates()
}

func (wm *WorldManager) sortedCandidates() []vec.Vec3 {
	out := make([]vec.Vec3, 0, len(wm.candidates))
	for pos := range wm.candidates {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

//================ Тики =================//

// TickStats - итоги одного тика
type TickStats struct {
	Tick            uint64 `json:"tick"`
	Candidates      int    `json:"candidates"`
	Checked         int    `json:"checked"`
	Persisted       int    `json:"persisted"`
	Decayed         int    `json:"decayed"`
	SkippedChance   int    `json:"skipped_chance"`
	SkippedUnloaded int    `json:"skipped_unloaded"`
	Updated         int    `json:"updated"`
	ItemsExpired    int    `json:"items_expired"`
}

// Run выполняет тики с частотой TPS до отмены ctx.
func (wm *WorldManager) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(wm.cfg.TPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wm.logger.Info("🌳 Тик мира запущен: %d TPS", wm.cfg.TPS)
	for {
		select {
		case <-ctx.Done():
			wm.logger.Info("🛑 Тик мира остановлен на тике %d", wm.CurrentTick())
			return nil
		case <-ticker.C:
			stats := wm.Step(ctx)
			if stats.Decayed > 0 {
				wm.logger.Debug("Тик %d: опало %d, сохранилось %d", stats.Tick, stats.Decayed, stats.Persisted)
			}
		}
	}
}

// Step выполняет один тик: случайные проверки листвы, обновления тикаемых
// блоков, разовые обновления и исчезновение старых предметов.
// Порядок обхода детерминирован.
func (wm *WorldManager) Step(ctx context.Context) TickStats {
	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()

	tick := wm.tick.Add(1)
	ctx, span := observability.Tracer().Start(ctx, "world.Step",
		trace.WithAttributes(attribute.Int64("world.tick", int64(tick))))
	defer span.End()

	stats := TickStats{Tick: tick}
	wm.tickFoliage(ctx, &stats)
	wm.tickBlocks(&stats)
	stats.ItemsExpired = wm.expireItems(tick)
	stats.Candidates = len(wm.candidates)

	span.SetAttributes(
		attribute.Int("decay.checked", stats.Checked),
		attribute.Int("decay.decayed", stats.Decayed),
		attribute.Int("decay.candidates", stats.Candidates),
	)
	return stats
}

func (wm *WorldManager) tickFoliage(ctx context.Context, stats *TickStats) {
	dw := wm.newDecayWorld()

	for _, pos := range wm.sortedCandidates() {
		// Кандидат мог исчезнуть из-за изменений соседей в этом же тике
		if _, ok := wm.candidates[pos]; !ok {
			continue
		}
		id, ok := wm.BlockIDAt(pos)
		if !ok {
			delete(wm.candidates, pos)
			continue
		}
		d, ok := decayableAt(id)
		if !ok {
			delete(wm.candidates, pos)
			continue
		}

		adj := wm.adjacencyOf(d)
		res, status := wm.scheduler.Tick(dw, decay.Request{Origin: pos, Adjacency: adj})
		switch status {
		case decay.TickSkippedChance:
			stats.SkippedChance++
		case decay.TickSkippedUnloaded:
			stats.SkippedUnloaded++
		case decay.TickChecked:
			stats.Checked++
			wm.recordOutcome(ctx, pos, id, res, adj, stats)
		}
	}
}

func (wm *WorldManager) recordOutcome(ctx context.Context, pos vec.Vec3, id block.BlockID, res decay.Result, adj decay.Adjacency, stats *TickStats) {
	switch res.Outcome {
	case decay.Persist:
		wm.persisted.Add(1)
		if stats != nil {
			stats.Persisted++
		}
	case decay.Decay:
		wm.decayed.Add(1)
		if stats != nil {
			stats.Decayed++
		}
	}
	wm.publishDecay(ctx, pos, id, res, adj)
}

func (wm *WorldManager) adjacencyOf(d block.Decayable) decay.Adjacency {
	adj, err := decay.ParseAdjacency(d.Adjacency())
	if err != nil {
		wm.logger.Warn("Листва с неизвестной моделью соседства: %v", err)
	}
	return adj
}

func (wm *WorldManager) tickBlocks(stats *TickStats) {
	api := wm.blockAPI()

	for _, coords := range wm.LoadedChunks() {
		wm.mu.RLock()
		c, ok := wm.chunks[coords]
		wm.mu.RUnlock()
		if !ok {
			continue
		}
		for _, local := range c.TickablePositions() {
			pos := c.WorldPos(local)
			if wm.tickOne(api, pos) {
				stats.Updated++
			}
		}
	}

	pending := wm.scheduled
	wm.scheduled = make(map[vec.Vec3]struct{})
	order := make([]vec.Vec3, 0, len(pending))
	for pos := range pending {
		order = append(order, pos)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })
	for _, pos := range order {
		if wm.tickOne(api, pos) {
			stats.Updated++
		}
	}
}

// tickOne вызывает TickUpdate для блока. Листва обновляется только планировщиком.
func (wm *WorldManager) tickOne(api block.BlockAPI, pos vec.Vec3) bool {
	id, ok := wm.BlockIDAt(pos)
	if !ok {
		return false
	}
	behavior, ok := block.Get(id)
	if !ok {
		return false
	}
	if _, isFoliage := behavior.(block.Decayable); isFoliage {
		return false
	}
	behavior.TickUpdate(api, pos)
	return true
}

//================ Проверки по запросу =================//

// ForceCheck выполняет проверку опадания без броска шанса.
// Требует загруженную область радиуса LoadRadius.
func (wm *WorldManager) ForceCheck(ctx context.Context, pos vec.Vec3) (decay.Result, error) {
	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()

	id, ok := wm.BlockIDAt(pos)
	if !ok {
		return decay.Result{}, fmt.Errorf("%w: %s", ErrChunkNotLoaded, pos)
	}
	d, ok := decayableAt(id)
	if !ok {
		return decay.Result{}, fmt.Errorf("%w: %s", ErrNotFoliage, pos)
	}
	if c, local, err := wm.chunkAt(pos); err == nil &&
		!block.MetaBool(c.GetBlockMetadata(local), block.MetaDecayable, true) {
		return decay.Result{}, fmt.Errorf("%w: %s", ErrNotDecayable, pos)
	}
	if !wm.IsAreaLoaded(pos, wm.scheduler.Config().LoadRadius) {
		return decay.Result{}, fmt.Errorf("%w: область вокруг %s", ErrChunkNotLoaded, pos)
	}

	ctx, span := observability.Tracer().Start(ctx, "world.ForceCheck")
	defer span.End()

	adj := wm.adjacencyOf(d)
	res := wm.engine.Check(wm.newDecayWorld(), decay.Request{Origin: pos, Adjacency: adj})
	wm.recordOutcome(ctx, pos, id, res, adj, nil)
	return res, nil
}

// Inspect считает расстояние до опоры без изменения мира.
// adj == nil - модель соседства берётся из поведения блока.
func (wm *WorldManager) Inspect(pos vec.Vec3, adj *decay.Adjacency) (decay.Result, decay.Adjacency, error) {
	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()

	id, ok := wm.BlockIDAt(pos)
	if !ok {
		return decay.Result{}, decay.Orthogonal6, fmt.Errorf("%w: %s", ErrChunkNotLoaded, pos)
	}

	model := decay.Orthogonal6
	switch {
	case adj != nil:
		model = *adj
	default:
		if d, ok := decayableAt(id); ok {
			model = wm.adjacencyOf(d)
		}
	}

	res := wm.engine.Inspect(wm.classifier, decay.Request{Origin: pos, Adjacency: model})
	return res, model, nil
}

//================ Статистика =================//

// Stats - сводка состояния мира
type Stats struct {
	Tick         uint64 `json:"tick"`
	LoadedChunks int    `json:"loaded_chunks"`
	Candidates   int    `json:"candidates"`
	Items        int    `json:"items"`
	Persisted    uint64 `json:"persisted_total"`
	Decayed      uint64 `json:"decayed_total"`
}

// Stats возвращает сводку состояния мира
func (wm *WorldManager) Stats() Stats {
	wm.writeMu.Lock()
	candidates := len(wm.candidates)
	wm.writeMu.Unlock()

	wm.mu.RLock()
	loaded := len(wm.chunks)
	wm.mu.RUnlock()

	wm.itemsMu.RLock()
	items := len(wm.items)
	wm.itemsMu.RUnlock()

	return Stats{
		Tick:         wm.tick.Load(),
		LoadedChunks: loaded,
		Candidates:   candidates,
		Items:        items,
		Persisted:    wm.persisted.Load(),
		Decayed:      wm.decayed.Load(),
	}
}
