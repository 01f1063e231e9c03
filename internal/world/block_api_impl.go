package world

import (
	"math/rand"

	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// worldBlockAPI реализует block.BlockAPI для поведений блоков.
// Вызывается только под writeMu: из тика или из установки блока.
type worldBlockAPI struct {
	world *WorldManager
}

var _ block.BlockAPI = (*worldBlockAPI)(nil)

func (wm *WorldManager) blockAPI() block.BlockAPI {
	return &worldBlockAPI{world: wm}
}

// GetBlockID возвращает ID блока; незагруженные позиции читаются как воздух
func (api *worldBlockAPI) GetBlockID(pos vec.Vec3) block.BlockID {
	id, _ := api.world.BlockIDAt(pos)
	return id
}

func (api *worldBlockAPI) SetBlock(pos vec.Vec3, id block.BlockID) {
	if err := api.world.setBlockLocked(pos, id, nil, causeBehavior); err != nil {
		api.world.logger.Debug("Поведение не смогло установить блок %d в %s: %v", id, pos, err)
	}
}

func (api *worldBlockAPI) GetBlockMetadata(pos vec.Vec3, key string) interface{} {
	c, local, err := api.world.chunkAt(pos)
	if err != nil {
		return nil
	}
	value, _ := c.GetBlockMetadataValue(local, key)
	return value
}

func (api *worldBlockAPI) SetBlockMetadata(pos vec.Vec3, key string, value interface{}) {
	if err := api.world.setMetaLocked(pos, key, value); err != nil {
		api.world.logger.Debug("Метаданные %s в %s не установлены: %v", key, pos, err)
	}
}

func (api *worldBlockAPI) IsAreaLoaded(center vec.Vec3, radius int) bool {
	return api.world.IsAreaLoaded(center, radius)
}

func (api *worldBlockAPI) ScheduleUpdateOnce(pos vec.Vec3) {
	api.world.scheduled[pos] = struct{}{}
}

// TriggerNeighborUpdates планирует обновление шести соседей по граням
func (api *worldBlockAPI) TriggerNeighborUpdates(pos vec.Vec3) {
	for _, off := range faceOffsets {
		api.ScheduleUpdateOnce(pos.Add(off))
	}
}

func (api *worldBlockAPI) MarkFoliageForCheck(center vec.Vec3, radius int) {
	api.world.markFoliageLocked(center, radius)
}

// Rand отдаёт источник случайности тиков; доступ только под writeMu
func (api *worldBlockAPI) Rand() *rand.Rand {
	return api.world.tickRng
}

var faceOffsets = [...]vec.Vec3{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}
