package implementations

import (
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// GrassBehavior реализует поведение блока травы
type GrassBehavior struct{}

// ID возвращает идентификатор блока
func (b *GrassBehavior) ID() block.BlockID {
	return block.GrassBlockID
}

// Name возвращает имя блока
func (b *GrassBehavior) Name() string {
	return "grass"
}

// NeedsTick возвращает true, так как трава растет
func (b *GrassBehavior) NeedsTick() bool {
	return true
}

// TickUpdate - постепенный рост и распространение на соседнюю землю
func (b *GrassBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) {
	growth, ok := block.AsInt(api.GetBlockMetadata(pos, "growth"))
	if !ok {
		api.SetBlockMetadata(pos, "growth", 0)
		return
	}

	rng := api.Rand()

	// Шанс роста 10% каждый тик, максимальный рост 5
	if growth < 5 && rng.Float32() < 0.1 {
		growth++
		api.SetBlockMetadata(pos, "growth", growth)
	}

	if growth < 3 || rng.Float32() >= 0.05 {
		return
	}

	directions := []vec.Vec3{
		{X: pos.X + 1, Y: pos.Y, Z: pos.Z},
		{X: pos.X - 1, Y: pos.Y, Z: pos.Z},
		{X: pos.X, Y: pos.Y, Z: pos.Z + 1},
		{X: pos.X, Y: pos.Y, Z: pos.Z - 1},
	}
	target := directions[rng.Intn(len(directions))]
	b.spreadTo(api, target)
}

// spreadTo превращает землю в траву, если над ней воздух
func (b *GrassBehavior) spreadTo(api block.BlockAPI, target vec.Vec3) bool {
	if api.GetBlockID(target) != block.DirtBlockID {
		return false
	}
	above := vec.Vec3{X: target.X, Y: target.Y + 1, Z: target.Z}
	if api.GetBlockID(above) != block.AirBlockID {
		return false
	}
	api.SetBlock(target, block.GrassBlockID)
	api.SetBlockMetadata(target, "growth", 0)
	return true
}

// OnPlace инициализирует рост, если блок пришёл без метаданных
func (b *GrassBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {
	if _, ok := block.AsInt(api.GetBlockMetadata(pos, "growth")); !ok {
		api.SetBlockMetadata(pos, "growth", 0)
	}
}

func (b *GrassBehavior) OnBreak(api block.BlockAPI, pos vec.Vec3) {}

// CreateMetadata создает начальные метаданные для блока
func (b *GrassBehavior) CreateMetadata() block.Metadata {
	return block.Metadata{"growth": 0}
}
