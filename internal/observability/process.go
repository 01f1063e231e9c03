package observability

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/annel0/leafdecay/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessCollector периодически снимает CPU и память процесса через gopsutil
// и выставляет их как Prometheus-гейджи.
type ProcessCollector struct {
	proc     *process.Process
	interval time.Duration
	started  time.Time

	cpu        prometheus.Gauge
	rss        prometheus.Gauge
	goroutines prometheus.Gauge
	heap       prometheus.Gauge

	mu   sync.RWMutex
	last ProcessSnapshot
}

// ProcessSnapshot - последнее снятое состояние процесса
type ProcessSnapshot struct {
	CPUPercent float64       `json:"cpu_percent"`
	RSSBytes   uint64        `json:"rss_bytes"`
	HeapBytes  uint64        `json:"heap_bytes"`
	Goroutines int           `json:"goroutines"`
	Uptime     time.Duration `json:"uptime_ns"`
}

// NewProcessCollector создаёт коллектор для текущего процесса.
func NewProcessCollector(reg prometheus.Registerer, interval time.Duration) (*ProcessCollector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	pc := &ProcessCollector{
		proc:     proc,
		interval: interval,
		started:  time.Now(),
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leafdecay",
			Subsystem: "process",
			Name:      "cpu_percent",
			Help:      "Загрузка CPU процессом, проценты.",
		}),
		rss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leafdecay",
			Subsystem: "process",
			Name:      "rss_bytes",
			Help:      "Резидентная память процесса.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leafdecay",
			Subsystem: "process",
			Name:      "goroutines",
			Help:      "Число горутин.",
		}),
		heap: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leafdecay",
			Subsystem: "process",
			Name:      "heap_alloc_bytes",
			Help:      "Выделенная куча Go.",
		}),
	}
	if reg != nil {
		reg.MustRegister(pc.cpu, pc.rss, pc.goroutines, pc.heap)
	}
	return pc, nil
}

// Refresh снимает показатели один раз
func (pc *ProcessCollector) Refresh() ProcessSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	snap := ProcessSnapshot{
		HeapBytes:  ms.HeapAlloc,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(pc.started),
	}
	if cpu, err := pc.proc.CPUPercent(); err == nil {
		snap.CPUPercent = cpu
	}
	if mem, err := pc.proc.MemoryInfo(); err == nil && mem != nil {
		snap.RSSBytes = mem.RSS
	}

	pc.cpu.Set(snap.CPUPercent)
	pc.rss.Set(float64(snap.RSSBytes))
	pc.goroutines.Set(float64(snap.Goroutines))
	pc.heap.Set(float64(snap.HeapBytes))

	pc.mu.Lock()
	pc.last = snap
	pc.mu.Unlock()
	return snap
}

// Last возвращает последний снимок
func (pc *ProcessCollector) Last() ProcessSnapshot {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.last
}

// Run обновляет показатели до отмены ctx.
func (pc *ProcessCollector) Run(ctx context.Context) {
	logging.Debug("ProcessCollector: обновление каждые %s", pc.interval)
	pc.Refresh()

	ticker := time.NewTicker(pc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pc.Refresh()
		}
	}
}
