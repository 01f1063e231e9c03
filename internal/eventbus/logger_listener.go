package eventbus

import (
	"context"

	"github.com/annel0/leafdecay/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог шины.
// Итоги опадания расшифровываются, остальное логируется кратко.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	logger := logging.GetEventBusLogger()

	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		if ev.EventType == TypeDecayEvent {
			var de DecayEvent
			if err := ev.Decode(&de); err == nil && de.Outcome == "decay" {
				logger.Debug("🍂 Листва (%d,%d,%d) опала, блок %d", de.Position.X, de.Position.Y, de.Position.Z, de.BlockID)
				return
			}
		}
		logger.Trace("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
