package implementations

import (
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

const maxWaterLevel = 7

// WaterBehavior реализует поведение блока воды: стекает вниз,
// а на опоре растекается по горизонтали с убыванием уровня.
type WaterBehavior struct{}

func (b *WaterBehavior) ID() block.BlockID { return block.WaterBlockID }
func (b *WaterBehavior) Name() string      { return "water" }

// NeedsTick возвращает true, так как вода течет
func (b *WaterBehavior) NeedsTick() bool {
	return true
}

// TickUpdate обновляет состояние воды - растекание
func (b *WaterBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) {
	level, ok := block.AsInt(api.GetBlockMetadata(pos, "level"))
	if !ok {
		api.SetBlockMetadata(pos, "level", maxWaterLevel)
		return
	}

	below := vec.Vec3{X: pos.X, Y: pos.Y - 1, Z: pos.Z}
	if below.Y >= 0 && api.GetBlockID(below) == block.AirBlockID {
		api.SetBlock(below, block.WaterBlockID)
		api.SetBlockMetadata(below, "level", level)
		return
	}

	if level <= 1 {
		return
	}

	directions := []vec.Vec3{
		{X: pos.X + 1, Y: pos.Y, Z: pos.Z},
		{X: pos.X - 1, Y: pos.Y, Z: pos.Z},
		{X: pos.X, Y: pos.Y, Z: pos.Z + 1},
		{X: pos.X, Y: pos.Y, Z: pos.Z - 1},
	}
	for _, dir := range directions {
		if api.GetBlockID(dir) == block.AirBlockID {
			api.SetBlock(dir, block.WaterBlockID)
			api.SetBlockMetadata(dir, "level", level-1)
		}
	}
}

// OnPlace инициализирует уровень воды
func (b *WaterBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {
	if _, ok := block.AsInt(api.GetBlockMetadata(pos, "level")); !ok {
		api.SetBlockMetadata(pos, "level", maxWaterLevel)
	}
}

// OnBreak будит соседей, чтобы вода заполнила освободившееся место
func (b *WaterBehavior) OnBreak(api block.BlockAPI, pos vec.Vec3) {
	api.TriggerNeighborUpdates(pos)
}

func (b *WaterBehavior) CreateMetadata() block.Metadata {
	return block.Metadata{"level": maxWaterLevel}
}
