package sync

import (
	"time"

	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/logging"
)

// SyncManager координирует BatchManager, SyncProducer и SyncConsumer.
type SyncManager struct {
	bm       *BatchManager
	producer *SyncProducer
	consumer *SyncConsumer
}

type SyncConfig struct {
	RegionID       string
	Bus            eventbus.EventBus
	BatchSize      int
	FlushEvery     time.Duration
	UseCompression bool
	Applier        BlockApplier
	// ConflictWindow - сколько помнить локальные изменения для разрешения конфликтов
	ConflictWindow time.Duration
	Resolver       ConflictResolver // nil - LWW
}

func NewSyncManager(cfg SyncConfig) (*SyncManager, error) {
	var compressor DeltaCompressor
	if cfg.UseCompression {
		zc, err := NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		compressor = zc
		logging.Info("🔄 SyncManager: используется zstd-компрессия")
	} else {
		compressor = NewPassthroughCompressor()
		logging.Info("🔄 SyncManager: компрессия отключена")
	}

	writes := NewWriteLog(cfg.ConflictWindow)
	bm := NewBatchManager(cfg.Bus, cfg.RegionID, cfg.BatchSize, cfg.FlushEvery, compressor)
	producer, err := NewSyncProducer(cfg.Bus, bm, writes)
	if err != nil {
		bm.Stop()
		return nil, err
	}

	consumer, err := NewSyncConsumer(cfg.Bus, cfg.RegionID, compressor, cfg.Applier, writes, cfg.Resolver)
	if err != nil {
		producer.Stop()
		bm.Stop()
		return nil, err
	}

	logging.Info("✅ SyncManager инициализирован: region=%s, batch=%d, flush=%v",
		cfg.RegionID, cfg.BatchSize, cfg.FlushEvery)

	return &SyncManager{
		bm:       bm,
		producer: producer,
		consumer: consumer,
	}, nil
}

// Batches возвращает менеджер пакетов (для статистики)
func (sm *SyncManager) Batches() *BatchManager { return sm.bm }

func (sm *SyncManager) Stop() {
	sm.producer.Stop()
	sm.consumer.Stop()
	sm.bm.Stop()
}
