package world

import (
	"context"
	"time"

	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world/block"
)

// Причины изменения блока в BlockEvent
const (
	causeSet      = "set"      // запрос извне (API, генерация деревьев)
	causeDecay    = "decay"    // листва опала
	causeBehavior = "behavior" // поведение соседнего блока
	causeSync     = "sync"     // изменение с другого узла
)

// Приоритеты событий мира. BlockEvent не должен теряться при переполнении шины.
const (
	priorityBlock  = 6
	priorityItem   = 5
	priorityDecay  = 3
	priorityEffect = 2
)

// EffectBlockBreak - эффект разрушения блока
const EffectBlockBreak = "block_break"

const publishTimeout = 100 * time.Millisecond

func toPosition(v vec.Vec3) eventbus.Position {
	return eventbus.Position{X: v.X, Y: v.Y, Z: v.Z}
}

func (wm *WorldManager) publish(ctx context.Context, eventType string, priority int, payload any) error {
	env, err := eventbus.NewEnvelope(wm.cfg.Source, eventType, priority, payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if wm.bus != nil {
		return wm.bus.Publish(ctx, env)
	}
	return eventbus.Publish(ctx, env)
}

func (wm *WorldManager) publishBlock(pos vec.Vec3, prev, id block.BlockID, meta block.Metadata, cause string) {
	ev := eventbus.BlockEvent{
		Position: toPosition(pos),
		Previous: uint16(prev),
		BlockID:  uint16(id),
		Metadata: meta,
		Cause:    cause,
	}
	if err := wm.publish(context.Background(), eventbus.TypeBlockEvent, priorityBlock, ev); err != nil {
		wm.logger.Warn("Не удалось опубликовать BlockEvent %s: %v", pos, err)
	}
}

func (wm *WorldManager) publishDecay(ctx context.Context, pos vec.Vec3, id block.BlockID, res decay.Result, adj decay.Adjacency) {
	ev := eventbus.DecayEvent{
		Position:  toPosition(pos),
		BlockID:   uint16(id),
		Outcome:   res.Outcome.String(),
		Distance:  res.Distance,
		Adjacency: adj.String(),
	}
	if err := wm.publish(ctx, eventbus.TypeDecayEvent, priorityDecay, ev); err != nil {
		wm.logger.Debug("DecayEvent %s не опубликован: %v", pos, err)
	}
}

func (wm *WorldManager) publishEffect(pos vec.Vec3, effect string, id block.BlockID) error {
	ev := eventbus.EffectEvent{
		Effect:   effect,
		Position: toPosition(pos),
		BlockID:  uint16(id),
	}
	return wm.publish(context.Background(), eventbus.TypeEffectEvent, priorityEffect, ev)
}

func (wm *WorldManager) publishItem(item DroppedItem) error {
	ev := eventbus.ItemSpawnEvent{
		ItemID:   item.ID,
		Item:     uint16(item.Item),
		Count:    item.Count,
		Position: toPosition(item.Position),
	}
	return wm.publish(context.Background(), eventbus.TypeItemSpawnEvent, priorityItem, ev)
}
