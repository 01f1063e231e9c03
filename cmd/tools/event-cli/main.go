package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/leafdecay/internal/eventbus"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "2006-01-02T15:04:05Z"
)

// knownTypes - типы событий, которые публикует сервер
var knownTypes = []string{
	eventbus.TypeBlockEvent,
	eventbus.TypeDecayEvent,
	eventbus.TypeEffectEvent,
	eventbus.TypeItemSpawnEvent,
	eventbus.TypeSyncBatch,
}

func main() {
	var (
		natsURL    = flag.String("nats", defaultNatsURL, "NATS server URL")
		stream     = flag.String("stream", "LEAFDECAY", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sources    = flag.String("sources", "", "Source (region) filter (comma-separated)")
		duration   = flag.Duration("duration", 10*time.Second, "How long to listen (0 = until Ctrl+C)")
		limit      = flag.Int("limit", 100, "Maximum number of events for tail (0 = unlimited)")
	)
	flag.Parse()

	if *command == "types" {
		showTypes()
		return
	}

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, cancel := listenContext(*duration)
	defer cancel()

	filter := eventbus.Filter{
		Types:   parseStringList(*eventTypes),
		Sources: parseStringList(*sources),
	}

	switch *command {
	case "tail":
		if err := tailEvents(ctx, cancel, bus, filter, *limit); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
	case "stats":
		if err := showStats(ctx, bus, filter); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types")
		os.Exit(1)
	}
}

// listenContext отменяется по таймеру или по сигналу
func listenContext(d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if d <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, d)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

// tailEvents выводит события в реальном времени
func tailEvents(ctx context.Context, stop context.CancelFunc, bus eventbus.EventBus, f eventbus.Filter, limit int) error {
	fmt.Printf("🎬 Tailing events (limit: %d)\n", limit)

	var (
		mu    sync.Mutex
		count int
	)
	sub, err := bus.Subscribe(ctx, f, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		if limit > 0 && count >= limit {
			return
		}
		fmt.Println(formatEvent(ev))
		count++
		if limit > 0 && count >= limit {
			stop()
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	mu.Lock()
	fmt.Printf("\n📊 Total events: %d\n", count)
	mu.Unlock()
	return nil
}

// showStats считает события по типам за время прослушивания
func showStats(ctx context.Context, bus eventbus.EventBus, f eventbus.Filter) error {
	fmt.Println("📊 Event statistics")

	var (
		mu     sync.Mutex
		counts = make(map[string]int)
		total  int
	)
	sub, err := bus.Subscribe(ctx, f, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		counts[ev.EventType]++
		total++
		mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	start := time.Now()
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	fmt.Printf("Period: %s - %s\n", start.UTC().Format(timeFormat), time.Now().UTC().Format(timeFormat))
	fmt.Printf("Total events: %d\n", total)
	fmt.Println("\nBy event type:")
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %s: %d events\n", t, counts[t])
	}
	return nil
}

func showTypes() {
	fmt.Println("📋 Available event types")
	for _, t := range knownTypes {
		fmt.Printf("  %s\n", t)
	}
}

// formatEvent печатает событие одной строкой; итоги опадания расшифровываются
func formatEvent(ev *eventbus.Envelope) string {
	head := fmt.Sprintf("[%s] %-14s src=%s prio=%d", ev.Timestamp.UTC().Format(timeFormat), ev.EventType, ev.Source, ev.Priority)
	switch ev.EventType {
	case eventbus.TypeDecayEvent:
		var de eventbus.DecayEvent
		if ev.Decode(&de) == nil {
			return fmt.Sprintf("%s (%d,%d,%d) %s dist=%d adj=%s", head,
				de.Position.X, de.Position.Y, de.Position.Z, de.Outcome, de.Distance, de.Adjacency)
		}
	case eventbus.TypeBlockEvent:
		var be eventbus.BlockEvent
		if ev.Decode(&be) == nil {
			return fmt.Sprintf("%s (%d,%d,%d) %d→%d cause=%s", head,
				be.Position.X, be.Position.Y, be.Position.Z, be.Previous, be.BlockID, be.Cause)
		}
	}
	return fmt.Sprintf("%s %s", head, string(ev.Payload))
}

// parseStringList разбирает список через запятую
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
