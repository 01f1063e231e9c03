package implementations

import "github.com/annel0/leafdecay/internal/world/block"

// Регистрируем все типы блоков при импорте пакета
func init() {
	// Базовые блоки
	block.Register(block.AirBlockID, &AirBehavior{})
	block.Register(block.StoneBlockID, &StoneBehavior{})
	block.Register(block.GrassBlockID, &GrassBehavior{})
	block.Register(block.WaterBlockID, &WaterBehavior{})
	block.Register(block.DirtBlockID, &DirtBehavior{})

	// Деревья: ствол и листва для каждой породы
	for _, v := range block.WoodVariants() {
		block.Register(block.LogBlockID(v), &LogBehavior{Variant: v})
		block.Register(block.LeavesBlockID(v), NewLeavesBehavior(v))
	}
}
