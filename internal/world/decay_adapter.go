package world

import (
	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// decayWorld реализует decay.AreaWorld поверх WorldManager.
// Используется только под writeMu.
type decayWorld struct {
	wm     *WorldManager
	broken map[vec.Vec3]block.BlockID // удалённая листва, ждущая эффекта
}

var _ decay.AreaWorld = (*decayWorld)(nil)

func (wm *WorldManager) newDecayWorld() *decayWorld {
	return &decayWorld{wm: wm, broken: make(map[vec.Vec3]block.BlockID)}
}

func (d *decayWorld) Classify(pos vec.Vec3) decay.CellKind {
	return d.wm.classifier.Classify(pos)
}

func (d *decayWorld) IsAreaLoaded(center vec.Vec3, radius int) bool {
	return d.wm.IsAreaLoaded(center, radius)
}

// MarkChecked снимает бит проверки: лист сохранился.
func (d *decayWorld) MarkChecked(pos vec.Vec3) {
	if err := d.wm.setMetaLocked(pos, block.MetaCheckDecay, false); err != nil {
		d.wm.logger.Warn("Не удалось снять отметку проверки в %s: %v", pos, err)
	}
}

func (d *decayWorld) Drops(pos vec.Vec3) []block.ItemStack {
	c, local, err := d.wm.chunkAt(pos)
	if err != nil {
		return nil
	}
	behavior, ok := block.Get(c.GetBlock(local))
	if !ok {
		return nil
	}
	dropper, ok := behavior.(block.Dropper)
	if !ok {
		return nil
	}
	return dropper.Drops(c.GetBlockMetadata(local), d.wm.dropRng)
}

func (d *decayWorld) SpawnDrop(pos vec.Vec3, item block.ItemStack) error {
	_, err := d.wm.spawnItemLocked(pos, item)
	return err
}

func (d *decayWorld) Remove(pos vec.Vec3) error {
	id, ok := d.wm.BlockIDAt(pos)
	if !ok {
		return ErrChunkNotLoaded
	}
	if err := d.wm.setBlockLocked(pos, block.AirBlockID, nil, causeDecay); err != nil {
		return err
	}
	d.broken[pos] = id
	return nil
}

func (d *decayWorld) PlayBreakEffect(pos vec.Vec3) error {
	id, ok := d.broken[pos]
	if !ok {
		id, _ = d.wm.BlockIDAt(pos)
	}
	delete(d.broken, pos)
	return d.wm.publishEffect(pos, EffectBlockBreak, id)
}
