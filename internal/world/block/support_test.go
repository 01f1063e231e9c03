package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportOf(t *testing.T) {
	for _, v := range WoodVariants() {
		assert.Equal(t, SupportAnchor, SupportOf(LogBlockID(v)), "ствол %s", v)
		assert.Equal(t, SupportFoliage, SupportOf(LeavesBlockID(v)), "листва %s", v)
		assert.Equal(t, SupportNone, SupportOf(SaplingItemID(v)), "саженец %s", v)
	}

	for _, id := range []BlockID{AirBlockID, StoneBlockID, GrassBlockID, WaterBlockID, DirtBlockID} {
		assert.Equal(t, SupportNone, SupportOf(id))
	}
	assert.Equal(t, SupportNone, SupportOf(LogBlockIDBase+BlockID(woodVariantCount)))
}

func TestVariantOf(t *testing.T) {
	v, ok := VariantOf(LeavesBlockID(Palm))
	require.True(t, ok)
	assert.Equal(t, Palm, v)

	v, ok = VariantOf(SaplingItemID(Aspen))
	require.True(t, ok)
	assert.Equal(t, Aspen, v)

	_, ok = VariantOf(StoneBlockID)
	assert.False(t, ok)
}

func TestParseWoodVariant(t *testing.T) {
	for _, v := range WoodVariants() {
		parsed, err := ParseWoodVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}

	_, err := ParseWoodVariant("oak")
	assert.Error(t, err)
}

func TestMetaBool(t *testing.T) {
	assert.True(t, MetaBool(nil, MetaCheckDecay, true))
	assert.False(t, MetaBool(Metadata{MetaCheckDecay: false}, MetaCheckDecay, true))
	assert.True(t, MetaBool(Metadata{MetaCheckDecay: "yes"}, MetaCheckDecay, true))
}
