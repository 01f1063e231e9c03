package main

import (
	"strings"
	"testing"

	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringList(t *testing.T) {
	assert.Nil(t, parseStringList(""))
	assert.Equal(t, []string{"BlockEvent", "DecayEvent"}, parseStringList(" BlockEvent, ,DecayEvent "))
}

func TestFormatEvent(t *testing.T) {
	ev, err := eventbus.NewEnvelope("region-1", eventbus.TypeDecayEvent, 3, eventbus.DecayEvent{
		Position:  eventbus.Position{X: 1, Y: 2, Z: 3},
		Outcome:   "decay",
		Distance:  -1,
		Adjacency: "orthogonal6",
	})
	require.NoError(t, err)

	line := formatEvent(ev)
	assert.True(t, strings.Contains(line, "(1,2,3) decay dist=-1 adj=orthogonal6"), line)
	assert.Contains(t, line, "src=region-1")

	ev, err = eventbus.NewEnvelope("region-1", eventbus.TypeEffectEvent, 2, eventbus.EffectEvent{Effect: "block_break"})
	require.NoError(t, err)
	assert.Contains(t, formatEvent(ev), `"effect":"block_break"`)
}
