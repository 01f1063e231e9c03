package world

import (
	"fmt"

	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// MinTreeHeight - минимальная высота ствола
const MinTreeHeight = 3

// PlantTree ставит ствол высотой height над base и крону из природной листвы.
// Крона пальмы держится только на диагоналях по рёбрам.
// Занятые клетки кроны не перезаписываются.
func (wm *WorldManager) PlantTree(base vec.Vec3, v block.WoodVariant, height int) error {
	if height < MinTreeHeight {
		return fmt.Errorf("высота дерева %d меньше %d", height, MinTreeHeight)
	}
	top := base.Add(vec.Vec3{Y: height - 1})
	if !wm.IsAreaLoaded(top, 3) || !wm.IsAreaLoaded(base, 0) {
		return fmt.Errorf("%w: область дерева у %s", ErrChunkNotLoaded, base)
	}
	if top.Y+2 >= wm.cfg.Height {
		return fmt.Errorf("%w: крона выше мира", ErrOutOfBounds)
	}

	wm.writeMu.Lock()
	defer wm.writeMu.Unlock()

	for y := 0; y < height; y++ {
		if err := wm.setBlockLocked(base.Add(vec.Vec3{Y: y}), block.LogBlockID(v), nil, causeSet); err != nil {
			return err
		}
	}

	leaves := block.LeavesBlockID(v)
	for _, off := range crownOffsets(v) {
		pos := top.Add(off)
		if id, ok := wm.BlockIDAt(pos); !ok || id != block.AirBlockID {
			continue
		}
		if err := wm.setBlockLocked(pos, leaves, nil, causeSet); err != nil {
			return err
		}
	}

	wm.logger.Debug("Посажено дерево %s высотой %d в %s", v, height, base)
	return nil
}

// crownOffsets возвращает смещения кроны относительно верхушки ствола
func crownOffsets(v block.WoodVariant) []vec.Vec3 {
	if v == block.Palm {
		// Верхний лист и четыре ветви: шаг вбок, затем вниз по диагонали ребра
		out := []vec.Vec3{{Y: 1}}
		for _, d := range [...]vec.Vec3{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}} {
			out = append(out,
				vec.Vec3{X: d.X, Y: 1, Z: d.Z},
				vec.Vec3{X: 2 * d.X, Y: 0, Z: 2 * d.Z},
			)
		}
		return out
	}

	var out []vec.Vec3
	for dy := -2; dy <= 1; dy++ {
		r := 1
		if dy < 0 {
			r = 2
		}
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if r == 2 && abs(dx) == 2 && abs(dz) == 2 {
					continue
				}
				if dx == 0 && dz == 0 && dy <= 0 {
					continue // ствол
				}
				out = append(out, vec.Vec3{X: dx, Y: dy, Z: dz})
			}
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
