package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Uint32(), b.Uint32(), "draw %d", i)
	}
}

func TestNewDiffersAcrossSeeds(t *testing.T) {
	a := New(1)
	b := New(2)

	same := 0
	for i := 0; i < 16; i++ {
		if a.Uint32() == b.Uint32() {
			same++
		}
	}
	assert.Less(t, same, 16)
}

func TestNewCryptoSeededReplays(t *testing.T) {
	rng, seed, err := NewCryptoSeeded()
	require.NoError(t, err)

	replay := New(seed)
	for i := 0; i < 8; i++ {
		assert.Equal(t, replay.Uint32(), rng.Uint32())
	}
}

func TestSequence(t *testing.T) {
	t.Run("replays values then repeats the last", func(t *testing.T) {
		s := NewSequence(3, 1, 4)
		assert.Equal(t, uint32(3), s.Uint32())
		assert.Equal(t, uint32(1), s.Uint32())
		assert.Equal(t, uint32(4), s.Uint32())
		assert.Equal(t, uint32(4), s.Uint32())
		assert.Equal(t, 3, s.Drawn())
	})

	t.Run("empty sequence yields zero", func(t *testing.T) {
		s := NewSequence()
		assert.Equal(t, uint32(0), s.Uint32())
		assert.Equal(t, 0, s.Drawn())
	})
}
