package implementations

import (
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

const (
	// logSustainRadius - на каком расстоянии ствол удерживает листву
	logSustainRadius = 4
)

// LogBehavior - ствол дерева. Служит опорой для листвы.
type LogBehavior struct {
	Variant block.WoodVariant
}

func (b *LogBehavior) ID() block.BlockID {
	return block.LogBlockID(b.Variant)
}

func (b *LogBehavior) Name() string {
	return b.Variant.String() + "_log"
}

func (b *LogBehavior) NeedsTick() bool                             { return false }
func (b *LogBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) {}
func (b *LogBehavior) CreateMetadata() block.Metadata              { return block.Metadata{} }

// OnPlace: новая опора может спасти листву, уже помеченную к проверке,
// отдельно ничего взводить не нужно.
func (b *LogBehavior) OnPlace(api block.BlockAPI, pos vec.Vec3) {}

// OnBreak взводит проверку опадания у всей листвы, которую мог держать ствол.
// Если окрестность загружена не полностью, ничего не взводится: после
// загрузки кандидатами станут только листья с уже взведённым битом,
// остальные остаются без опоры до следующего изменения рядом.
func (b *LogBehavior) OnBreak(api block.BlockAPI, pos vec.Vec3) {
	if !api.IsAreaLoaded(pos, logSustainRadius+1) {
		return
	}
	api.MarkFoliageForCheck(pos, logSustainRadius)
}
