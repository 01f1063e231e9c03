package sync

import (
	"context"
	"encoding/json"

	"github.com/annel0/leafdecay/internal/eventbus"
)

// SyncProducer подписывается на изменения блоков и передаёт их BatchManager'у.
type SyncProducer struct {
	bm     *BatchManager
	sub    eventbus.Subscription
	source string
	writes *WriteLog // может быть nil
}

func NewSyncProducer(bus eventbus.EventBus, bm *BatchManager, writes *WriteLog) (*SyncProducer, error) {
	sp := &SyncProducer{bm: bm, source: bm.source, writes: writes}
	sub, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.TypeBlockEvent}}, sp.handle)
	if err != nil {
		return nil, err
	}
	sp.sub = sub
	return sp, nil
}

func (sp *SyncProducer) handle(ctx context.Context, ev *eventbus.Envelope) {
	// Изменения, пришедшие из других узлов, обратно не пересылаем
	if ev.Source != "" && ev.Source != sp.source {
		return
	}
	ch := Change{
		Data:         ev.Payload,
		Priority:     ev.Priority,
		Timestamp:    ev.Timestamp,
		SourceRegion: sp.source,
		ChangeType:   ev.EventType,
	}
	if sp.writes != nil {
		var be eventbus.BlockEvent
		if err := json.Unmarshal(ev.Payload, &be); err == nil {
			sp.writes.Record(be.Position, ch)
		}
	}
	sp.bm.AddChange(ch)
}

func (sp *SyncProducer) Stop() { sp.sub.Unsubscribe() }
