package sync

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/logging"
	"github.com/google/uuid"
)

// Change - одно изменение мира в ленте синхронизации.
type Change struct {
	Data         []byte    `json:"data"`     // Полезная нагрузка исходного события
	Priority     int       `json:"priority"` // Приоритизация для сброса при перегрузке
	Timestamp    time.Time `json:"ts"`       // Время создания изменения
	SourceRegion string    `json:"source"`   // Узел-источник изменения
	ChangeType   string    `json:"type"`     // Тип события: "BlockEvent"
}

// BatchManager накапливает изменения и отправляет их пакетами через EventBus.
type BatchManager struct {
	mu       sync.Mutex
	buf      []Change
	capacity int
	evicted  uint64

	flushEvery time.Duration
	bus        eventbus.EventBus
	source     string // имя текущего узла
	compressor DeltaCompressor
	logger     *logging.Logger

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewBatchManager создаёт менеджер с указанным лимитом буфера и интервалом отправки.
// При flushEvery <= 0 пакеты отправляются только вызовом Flush.
func NewBatchManager(bus eventbus.EventBus, source string, capacity int, flushEvery time.Duration, compressor DeltaCompressor) *BatchManager {
	if compressor == nil {
		compressor = NewPassthroughCompressor()
	}
	if capacity <= 0 {
		capacity = 256
	}
	bm := &BatchManager{
		capacity:   capacity,
		flushEvery: flushEvery,
		bus:        bus,
		source:     source,
		compressor: compressor,
		logger:     logging.GetSyncLogger(),
		quit:       make(chan struct{}),
	}
	if flushEvery > 0 {
		bm.wg.Add(1)
		go bm.loop()
	}
	return bm
}

// AddChange добавляет изменение в буфер; при переполнении вытесняется
// изменение с наименьшим приоритетом, если новое важнее.
func (bm *BatchManager) AddChange(ch Change) {
	if ch.Timestamp.IsZero() {
		ch.Timestamp = time.Now().UTC()
	}
	if ch.SourceRegion == "" {
		ch.SourceRegion = bm.source
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if len(bm.buf) < bm.capacity {
		bm.buf = append(bm.buf, ch)
		return
	}

	lowIdx := -1
	lowPri := ch.Priority
	for i, c := range bm.buf {
		if c.Priority < lowPri {
			lowPri = c.Priority
			lowIdx = i
		}
	}
	bm.evicted++
	if lowIdx >= 0 {
		bm.buf[lowIdx] = ch
	}
}

// Pending возвращает число изменений в буфере
func (bm *BatchManager) Pending() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return len(bm.buf)
}

// Evicted возвращает число вытесненных или отброшенных изменений
func (bm *BatchManager) Evicted() uint64 {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.evicted
}

func (bm *BatchManager) loop() {
	defer bm.wg.Done()
	ticker := time.NewTicker(bm.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bm.Flush()
		case <-bm.quit:
			return
		}
	}
}

// Flush отсылает накопленные изменения единым сообщением SyncBatch.
func (bm *BatchManager) Flush() {
	bm.mu.Lock()
	if len(bm.buf) == 0 {
		bm.mu.Unlock()
		return
	}
	changes := make([]Change, len(bm.buf))
	copy(changes, bm.buf)
	bm.buf = bm.buf[:0]
	bm.mu.Unlock()

	batchPayload, err := bm.compressor.Compress(changes)
	if err != nil {
		bm.logger.Warn("BatchManager compress error: %v", err)
		return
	}

	env := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    bm.source,
		EventType: eventbus.TypeSyncBatch,
		Version:   1,
		Priority:  5,
		Payload:   batchPayload,
		Metadata:  map[string]string{"changes": strconv.Itoa(len(changes))},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := bm.bus.Publish(ctx, env); err != nil {
		bm.logger.Warn("BatchManager publish error: %v", err)
		return
	}
	bm.logger.Debug("📦 Отправлен пакет из %d изменений (%d байт)", len(changes), len(batchPayload))
}

// Stop завершает работу менеджера и отправляет оставшиеся изменения.
func (bm *BatchManager) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.quit)
		bm.wg.Wait()
		bm.Flush()
	})
}
