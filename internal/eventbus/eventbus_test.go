package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope("node-1", TypeDecayEvent, 3, DecayEvent{
		Position: Position{X: 1, Y: 2, Z: 3},
		Outcome:  "decay",
		Distance: -1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, TypeDecayEvent, env.EventType)
	assert.Equal(t, 1, env.Version)

	var de DecayEvent
	require.NoError(t, env.Decode(&de))
	assert.Equal(t, Position{X: 1, Y: 2, Z: 3}, de.Position)
	assert.Equal(t, "decay", de.Outcome)
}

func TestMemoryBusFilters(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	var got []string
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypeBlockEvent}}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	for _, typ := range []string{TypeBlockEvent, TypeEffectEvent, TypeBlockEvent} {
		env, err := NewEnvelope("test", typ, 5, struct{}{})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), env))
	}

	require.NoError(t, bus.Close())
	assert.Equal(t, []string{TypeBlockEvent, TypeBlockEvent}, got)

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(2), stats.Consumed)

	env, _ := NewEnvelope("test", TypeBlockEvent, 5, struct{}{})
	assert.ErrorIs(t, bus.Publish(context.Background(), env), ErrClosed)
}

func TestMemoryBusDropsLowPriorityWhenFull(t *testing.T) {
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, 1),
		capacity:    1,
		done:        make(chan struct{}),
	}
	// dispatchLoop не запущен: буфер не опустошается
	ctx := context.Background()
	require.NoError(t, mb.Publish(ctx, &Envelope{Priority: 1}))
	require.NoError(t, mb.Publish(ctx, &Envelope{Priority: 1}))

	stats := mb.Metrics()
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, 1, stats.InFlight)

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, mb.Publish(cctx, &Envelope{Priority: 9}), context.DeadlineExceeded)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewMemoryBus(4)
	calls := 0
	var mu sync.Mutex
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: TypeBlockEvent}))
	require.NoError(t, bus.Close())
	assert.Equal(t, 0, calls)
}

func TestGlobalPublishWithoutBus(t *testing.T) {
	Init(nil)
	assert.NoError(t, Publish(context.Background(), &Envelope{}))
	assert.Nil(t, Global())
}

func TestMetricsExporterCollectsDeltas(t *testing.T) {
	bus := &fakeStatsBus{}
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	bus.stats = Stats{Published: 5, Consumed: 3, Dropped: 1, InFlight: 2}
	me.Collect()
	bus.stats = Stats{Published: 8, Consumed: 3, Dropped: 1, InFlight: 0}
	me.Collect()

	assert.Equal(t, 8.0, testutil.ToFloat64(me.published))
	assert.Equal(t, 3.0, testutil.ToFloat64(me.consumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(me.dropped))
	assert.Equal(t, 0.0, testutil.ToFloat64(me.inflight))

	ctx, cancel := context.WithCancel(context.Background())
	me.Start(ctx)
	cancel()
	me.Wait()
}

type fakeStatsBus struct {
	stats Stats
}

func (b *fakeStatsBus) Publish(context.Context, *Envelope) error { return nil }
func (b *fakeStatsBus) Subscribe(context.Context, Filter, Handler) (Subscription, error) {
	return nil, nil
}
func (b *fakeStatsBus) Metrics() Stats { return b.stats }
func (b *fakeStatsBus) Close() error   { return nil }
