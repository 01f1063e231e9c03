package api

import (
	"fmt"
	"time"

	"github.com/annel0/leafdecay/internal/observability"
)

// ServerMetrics - время работы и состояние процесса для /api/stats
type ServerMetrics struct {
	StartTime time.Time
	process   *observability.ProcessCollector
}

// ServerSnapshot - раздел server в ответе статистики
type ServerSnapshot struct {
	Uptime        string                         `json:"uptime"`
	UptimeSeconds int64                          `json:"uptime_seconds"`
	ServerTime    int64                          `json:"server_time"`
	Process       *observability.ProcessSnapshot `json:"process,omitempty"`
}

// NewServerMetrics создает новый экземпляр метрик. process может быть nil.
func NewServerMetrics(process *observability.ProcessCollector) *ServerMetrics {
	return &ServerMetrics{
		StartTime: time.Now(),
		process:   process,
	}
}

// Snapshot возвращает текущее состояние сервера
func (sm *ServerMetrics) Snapshot() ServerSnapshot {
	uptime := time.Since(sm.StartTime)
	out := ServerSnapshot{
		Uptime:        formatUptime(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
		ServerTime:    time.Now().Unix(),
	}
	if sm.process != nil {
		snap := sm.process.Last()
		out.Process = &snap
	}
	return out
}

// formatUptime печатает длительность в виде "1д 2ч 3м 4с", опуская старшие нули
func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}
