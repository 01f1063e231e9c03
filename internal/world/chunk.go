package world

import (
	"sort"
	"sync"

	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// ChunkSize - ширина колонки чанка по X и Z
const ChunkSize = 16

// Chunk представляет колонку мира 16×Height×16 блоков.
// Координаты внутри чанка - локальные: X,Z ∈ [0,16), Y ∈ [0,Height).
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка (X, Z)
	Height int

	Blocks   []block.BlockID             // Плоский массив [x][z][y]
	Metadata map[vec.Vec3]block.Metadata // Метаданные по локальной позиции
	Changes  map[vec.Vec3]struct{}       // Измененные блоки с последней очистки
	Tickable map[vec.Vec3]struct{}       // Блоки, которым нужен тик

	ChangeCounter int          // Счетчик изменений
	Mu            sync.RWMutex // Мьютекс для безопасного доступа
}

// NewChunk создаёт чанк, заполненный воздухом
func NewChunk(coords vec.Vec2, height int) *Chunk {
	return &Chunk{
		Coords:   coords,
		Height:   height,
		Blocks:   make([]block.BlockID, ChunkSize*ChunkSize*height),
		Metadata: make(map[vec.Vec3]block.Metadata),
		Changes:  make(map[vec.Vec3]struct{}),
		Tickable: make(map[vec.Vec3]struct{}),
	}
}

// InBounds проверяет, что локальная позиция лежит внутри чанка
func (c *Chunk) InBounds(local vec.Vec3) bool {
	return local.X >= 0 && local.X < ChunkSize &&
		local.Z >= 0 && local.Z < ChunkSize &&
		local.Y >= 0 && local.Y < c.Height
}

func (c *Chunk) index(local vec.Vec3) int {
	return (local.X*ChunkSize+local.Z)*c.Height + local.Y
}

// GetBlock возвращает ID блока по локальным координатам
func (c *Chunk) GetBlock(local vec.Vec3) block.BlockID {
	if !c.InBounds(local) {
		return block.AirBlockID
	}
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Blocks[c.index(local)]
}

// SetBlock устанавливает блок и заменяет его метаданные.
// meta == nil - метаданные по умолчанию из поведения блока.
// Возвращает предыдущий ID.
func (c *Chunk) SetBlock(local vec.Vec3, id block.BlockID, meta block.Metadata) block.BlockID {
	if !c.InBounds(local) {
		return block.AirBlockID
	}

	behavior, exists := block.Get(id)
	if meta == nil && exists {
		meta = behavior.CreateMetadata()
	}

	c.Mu.Lock()
	defer c.Mu.Unlock()

	i := c.index(local)
	prev := c.Blocks[i]
	c.Blocks[i] = id

	if len(meta) > 0 {
		c.Metadata[local] = cloneMetadata(meta)
	} else {
		delete(c.Metadata, local)
	}

	if exists && behavior.NeedsTick() {
		c.Tickable[local] = struct{}{}
	} else {
		delete(c.Tickable, local)
	}

	c.Changes[local] = struct{}{}
	c.ChangeCounter++
	return prev
}

// SetBlockMetadata устанавливает значение метаданных блока
func (c *Chunk) SetBlockMetadata(local vec.Vec3, key string, value interface{}) {
	if !c.InBounds(local) {
		return
	}
	c.Mu.Lock()
	defer c.Mu.Unlock()

	if _, exists := c.Metadata[local]; !exists {
		c.Metadata[local] = make(block.Metadata)
	}
	c.Metadata[local][key] = value
	c.Changes[local] = struct{}{}
	c.ChangeCounter++
}

// GetBlockMetadata возвращает копию метаданных блока
func (c *Chunk) GetBlockMetadata(local vec.Vec3) block.Metadata {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return cloneMetadata(c.Metadata[local])
}

// GetBlockMetadataValue возвращает конкретное значение метаданных
func (c *Chunk) GetBlockMetadataValue(local vec.Vec3, key string) (interface{}, bool) {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	if metadata, exists := c.Metadata[local]; exists {
		value, ok := metadata[key]
		return value, ok
	}
	return nil, false
}

// TickablePositions возвращает отсортированные локальные позиции тикаемых блоков
func (c *Chunk) TickablePositions() []vec.Vec3 {
	c.Mu.RLock()
	out := make([]vec.Vec3, 0, len(c.Tickable))
	for pos := range c.Tickable {
		out = append(out, pos)
	}
	c.Mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// WorldPos переводит локальную позицию в мировую
func (c *Chunk) WorldPos(local vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: c.Coords.X*ChunkSize + local.X,
		Y: local.Y,
		Z: c.Coords.Y*ChunkSize + local.Z,
	}
}

// HasChanges возвращает true, если в чанке есть изменения
func (c *Chunk) HasChanges() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.ChangeCounter > 0
}

// ClearChanges очищает список изменений
func (c *Chunk) ClearChanges() {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	c.Changes = make(map[vec.Vec3]struct{})
	c.ChangeCounter = 0
}

func cloneMetadata(meta block.Metadata) block.Metadata {
	out := make(block.Metadata, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
