package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3ChunkCoords(t *testing.T) {
	tests := []struct {
		pos   Vec3
		chunk Vec2
		local Vec3
	}{
		{Vec3{X: 0, Y: 64, Z: 0}, Vec2{X: 0, Y: 0}, Vec3{X: 0, Y: 64, Z: 0}},
		{Vec3{X: 17, Y: 5, Z: 31}, Vec2{X: 1, Y: 1}, Vec3{X: 1, Y: 5, Z: 15}},
		{Vec3{X: -1, Y: 0, Z: -16}, Vec2{X: -1, Y: -1}, Vec3{X: 15, Y: 0, Z: 0}},
		{Vec3{X: -17, Y: 3, Z: 16}, Vec2{X: -2, Y: 1}, Vec3{X: 15, Y: 3, Z: 0}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.chunk, tt.pos.ChunkCoords(), "чанк для %v", tt.pos)
		assert.Equal(t, tt.local, tt.pos.LocalInChunk(), "локальные координаты для %v", tt.pos)
	}
}

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: -4, Y: 0, Z: 2}

	assert.Equal(t, Vec3{X: -3, Y: 2, Z: 5}, a.Add(b))
	assert.Equal(t, Vec3{X: 5, Y: 2, Z: 1}, a.Sub(b))
	assert.True(t, a.Add(b).Sub(b).Equals(a))
	assert.Equal(t, 5, a.ChebyshevTo(b))
	assert.Equal(t, float64(25+4+1), a.DistanceTo(b))
}

func TestVec3Less(t *testing.T) {
	assert.True(t, Vec3{X: 0, Y: 9, Z: 9}.Less(Vec3{X: 1}))
	assert.True(t, Vec3{X: 1, Y: 0, Z: 9}.Less(Vec3{X: 1, Y: 1}))
	assert.True(t, Vec3{X: 1, Y: 1, Z: 0}.Less(Vec3{X: 1, Y: 1, Z: 1}))
	assert.False(t, Vec3{X: 1, Y: 1, Z: 1}.Less(Vec3{X: 1, Y: 1, Z: 1}))
}
