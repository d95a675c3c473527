package gsma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacity(t *testing.T) {
	_, err := NewSMA[int](2)
	assert.ErrorIs(t, err, ERR_VALUE)
}

func TestWindow(t *testing.T) {
	sma, err := NewSMA[int](3)
	require.NoError(t, err)
	want := []float64{10, 15, 20, 30, 40, 50}
	for i, v := range []int{10, 20, 30, 40, 50, 60} {
		assert.InDelta(t, want[i], sma.Recalc(v), 1e-9, "step %d", i)
	}
	assert.Equal(t, 3, sma.Len())
	assert.InDelta(t, 50, sma.Show(), 1e-9)
}

func TestUnsignedDecreasing(t *testing.T) {
	sma, err := NewSMA[uint](3)
	require.NoError(t, err)
	for _, v := range []uint{9, 9, 9, 0, 0, 0} {
		sma.Recalc(v)
	}
	assert.InDelta(t, 0, sma.Show(), 1e-9)
}
