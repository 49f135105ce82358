package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDGenerator(t *testing.T) {
	gen := NewSequentialIDGenerator()

	first := gen.Generate()
	second := gen.Generate()
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", first)
	assert.Equal(t, "00000000-0000-7000-8000-000000000002", second)
	assert.Less(t, first, second)

	id, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())
}

func TestSequentialIDGenerator_Deterministic(t *testing.T) {
	a, b := NewSequentialIDGenerator(), NewSequentialIDGenerator()
	for range 10 {
		assert.Equal(t, a.Generate(), b.Generate())
	}
}

func TestFixedIDGenerator(t *testing.T) {
	gen := NewFixedIDGenerator("build-1", "build-2")
	assert.Equal(t, "build-1", gen.Generate())
	assert.Equal(t, "build-2", gen.Generate())
	assert.PanicsWithValue(t, "FixedIDGenerator: all IDs exhausted", func() { gen.Generate() })
}
