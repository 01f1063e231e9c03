package world

import (
	"sort"

	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
	"github.com/google/uuid"
)

// ItemLifetimeTicks - через столько тиков выпавший предмет исчезает
const ItemLifetimeTicks = 6000

// DroppedItem - предмет, лежащий в мире
type DroppedItem struct {
	ID        string        `json:"id"`
	Item      block.BlockID `json:"item"`
	Count     int           `json:"count"`
	Position  vec.Vec3      `json:"pos"`
	SpawnTick uint64        `json:"spawn_tick"`
}

func (wm *WorldManager) spawnItemLocked(pos vec.Vec3, stack block.ItemStack) (DroppedItem, error) {
	if _, _, err := wm.chunkAt(pos); err != nil {
		return DroppedItem{}, err
	}

	item := DroppedItem{
		ID:        uuid.NewString(),
		Item:      stack.Item,
		Count:     stack.Count,
		Position:  pos,
		SpawnTick: wm.tick.Load(),
	}

	wm.itemsMu.Lock()
	wm.items[item.ID] = item
	wm.itemsMu.Unlock()

	if err := wm.publishItem(item); err != nil {
		wm.logger.Warn("ItemSpawnEvent %s не опубликован: %v", item.ID, err)
	}
	return item, nil
}

// Items возвращает предметы в мире в порядке появления
func (wm *WorldManager) Items() []DroppedItem {
	wm.itemsMu.RLock()
	out := make([]DroppedItem, 0, len(wm.items))
	for _, item := range wm.items {
		out = append(out, item)
	}
	wm.itemsMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SpawnTick != out[j].SpawnTick {
			return out[i].SpawnTick < out[j].SpawnTick
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PickupItem убирает предмет из мира
func (wm *WorldManager) PickupItem(id string) (DroppedItem, bool) {
	wm.itemsMu.Lock()
	defer wm.itemsMu.Unlock()
	item, ok := wm.items[id]
	if ok {
		delete(wm.items, id)
	}
	return item, ok
}

func (wm *WorldManager) expireItems(tick uint64) int {
	wm.itemsMu.Lock()
	defer wm.itemsMu.Unlock()

	expired := 0
	for id, item := range wm.items {
		if tick-item.SpawnTick >= ItemLifetimeTicks {
			delete(wm.items, id)
			expired++
		}
	}
	return expired
}
