package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/logging"
)

// BlockApplier применяет изменение блока, пришедшее с другого узла.
type BlockApplier interface {
	ApplyRemoteBlock(ev eventbus.BlockEvent) error
}

// SyncConsumer слушает SyncBatch других узлов и применяет изменения блоков.
type SyncConsumer struct {
	sub        eventbus.Subscription
	compressor DeltaCompressor
	applier    BlockApplier
	source     string
	writes     *WriteLog // может быть nil
	resolver   ConflictResolver
	logger     *logging.Logger
}

func NewSyncConsumer(bus eventbus.EventBus, source string, compressor DeltaCompressor, applier BlockApplier, writes *WriteLog, resolver ConflictResolver) (*SyncConsumer, error) {
	if compressor == nil {
		compressor = NewPassthroughCompressor()
	}
	if resolver == nil {
		resolver = NewLWWResolver()
	}
	sc := &SyncConsumer{
		compressor: compressor,
		applier:    applier,
		source:     source,
		writes:     writes,
		resolver:   resolver,
		logger:     logging.GetSyncLogger(),
	}
	sub, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.TypeSyncBatch}}, sc.handle)
	if err != nil {
		return nil, err
	}
	sc.sub = sub
	return sc, nil
}

func (sc *SyncConsumer) handle(ctx context.Context, ev *eventbus.Envelope) {
	if ev.Source == sc.source {
		return
	}
	sc.logger.Debug("SyncConsumer: batch size=%d bytes from %s", len(ev.Payload), ev.Source)

	changes, err := sc.compressor.Decompress(ev.Payload)
	if err != nil {
		sc.logger.Warn("SyncConsumer decompress error: %v", err)
		return
	}

	applied := 0
	for i := range changes {
		if err := sc.applyChange(&changes[i]); err != nil {
			sc.logger.Warn("SyncConsumer: ошибка применения изменения %d: %v", i, err)
			continue
		}
		applied++
	}
	sc.logger.Debug("SyncConsumer: применено %d из %d изменений", applied, len(changes))
}

func (sc *SyncConsumer) applyChange(change *Change) error {
	if len(change.Data) == 0 {
		return fmt.Errorf("change data is empty")
	}
	if change.ChangeType != eventbus.TypeBlockEvent {
		return nil
	}
	if sc.applier == nil {
		return nil
	}

	var be eventbus.BlockEvent
	if err := json.Unmarshal(change.Data, &be); err != nil {
		return fmt.Errorf("decode block event: %w", err)
	}

	if sc.writes != nil {
		if local, ok := sc.writes.Lookup(be.Position); ok {
			winner, err := sc.resolver.Resolve(&Conflict{
				LocalChange:  &local,
				RemoteChange: change,
				DetectedAt:   time.Now(),
			})
			if err != nil {
				return fmt.Errorf("resolve conflict: %w", err)
			}
			if winner != change {
				sc.logger.Debug("SyncConsumer: конфликт в %+v решён в пользу %s", be.Position, local.SourceRegion)
				return nil
			}
		}
	}
	return sc.applier.ApplyRemoteBlock(be)
}

func (sc *SyncConsumer) Stop() { sc.sub.Unsubscribe() }
