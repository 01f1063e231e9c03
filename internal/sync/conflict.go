package sync

import (
	"sync"
	"time"

	"github.com/annel0/leafdecay/internal/eventbus"
)

// Conflict - удалённое изменение блока, который недавно меняли локально
type Conflict struct {
	LocalChange  *Change
	RemoteChange *Change
	DetectedAt   time.Time
}

// ConflictResolver выбирает изменение, которое должно остаться в мире
type ConflictResolver interface {
	Resolve(conflict *Conflict) (*Change, error)
}

// LWWResolver - побеждает более позднее изменение. При равном времени
// выигрывает узел с меньшим именем, чтобы все узлы пришли к одному блоку.
type LWWResolver struct{}

func NewLWWResolver() ConflictResolver {
	return &LWWResolver{}
}

func (r *LWWResolver) Resolve(conflict *Conflict) (*Change, error) {
	local, remote := conflict.LocalChange, conflict.RemoteChange
	switch {
	case remote.Timestamp.After(local.Timestamp):
		return remote, nil
	case local.Timestamp.After(remote.Timestamp):
		return local, nil
	case remote.SourceRegion < local.SourceRegion:
		return remote, nil
	default:
		return local, nil
	}
}

// WriteLog помнит последнее локальное изменение каждой позиции в течение window.
type WriteLog struct {
	mu        sync.Mutex
	entries   map[eventbus.Position]Change
	window    time.Duration
	lastPrune time.Time
	now       func() time.Time
}

func NewWriteLog(window time.Duration) *WriteLog {
	if window <= 0 {
		window = time.Minute
	}
	return &WriteLog{
		entries: make(map[eventbus.Position]Change),
		window:  window,
		now:     time.Now,
	}
}

// Record запоминает локальное изменение и вычищает устаревшие записи
func (wl *WriteLog) Record(pos eventbus.Position, ch Change) {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	wl.entries[pos] = ch
	now := wl.now()
	if now.Sub(wl.lastPrune) < wl.window/4 {
		return
	}
	wl.lastPrune = now
	cutoff := now.Add(-wl.window)
	for p, e := range wl.entries {
		if e.Timestamp.Before(cutoff) {
			delete(wl.entries, p)
		}
	}
}

// Lookup возвращает локальное изменение позиции, если оно не старше window
func (wl *WriteLog) Lookup(pos eventbus.Position) (Change, bool) {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	ch, ok := wl.entries[pos]
	if !ok || ch.Timestamp.Before(wl.now().Add(-wl.window)) {
		return Change{}, false
	}
	return ch, true
}

func (wl *WriteLog) Len() int {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	return len(wl.entries)
}
