package implementations

import (
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// AirBehavior реализует поведение пустого блока (воздуха)
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "air"
}

// NeedsTick возвращает false, воздух статичен
func (b *AirBehavior) NeedsTick() bool {
	return false
}

func (b *AirBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) {}
func (b *AirBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3)    {}
func (b *AirBehavior) OnBreak(api block.BlockAPI, pos vec.Vec3)    {}

// CreateMetadata создает пустые метаданные
func (b *AirBehavior) CreateMetadata() block.Metadata {
	return block.Metadata{}
}
