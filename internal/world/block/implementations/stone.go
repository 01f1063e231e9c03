package implementations

import (
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// StoneBehavior реализует поведение блока камня
type StoneBehavior struct{}

func (b *StoneBehavior) ID() block.BlockID                           { return block.StoneBlockID }
func (b *StoneBehavior) Name() string                                { return "stone" }
func (b *StoneBehavior) NeedsTick() bool                             { return false }
func (b *StoneBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) {}
func (b *StoneBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3)    {}
func (b *StoneBehavior) OnBreak(api block.BlockAPI, pos vec.Vec3)    {}
func (b *StoneBehavior) CreateMetadata() block.Metadata              { return block.Metadata{} }
