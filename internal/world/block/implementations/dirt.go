package implementations

import (
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// DirtBehavior реализует поведение блока земли
type DirtBehavior struct{}

// ID возвращает идентификатор блока
func (b *DirtBehavior) ID() block.BlockID {
	return block.DirtBlockID
}

// Name возвращает имя блока
func (b *DirtBehavior) Name() string {
	return "dirt"
}

// NeedsTick возвращает false, земля статична
func (b *DirtBehavior) NeedsTick() bool {
	return false
}

func (b *DirtBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) {}

// OnPlace инициализирует влажность земли
func (b *DirtBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {
	api.SetBlockMetadata(pos, "moisture", 0)
}

func (b *DirtBehavior) OnBreak(api block.BlockAPI, pos vec.Vec3) {}

// CreateMetadata создает начальные метаданные для блока
func (b *DirtBehavior) CreateMetadata() block.Metadata {
	return block.Metadata{
		"moisture": 0,
	}
}
