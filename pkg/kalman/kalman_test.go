package kalman

import (
	"math"
	"testing"

	"github.com/Robogera/crowd/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStationary(t *testing.T) {
	box := geom.NewBox(100, 100, 200, 300)
	kf := NewFilter(box)
	for range 20 {
		kf.Predict()
		require.NoError(t, kf.Update(box))
	}
	got := kf.Box()
	assert.InDelta(t, box.X1, got.X1, 1e-6)
	assert.InDelta(t, box.Y2, got.Y2, 1e-6)
	vx, vy := kf.Velocity()
	assert.InDelta(t, 0, vx, 1e-6)
	assert.InDelta(t, 0, vy, 1e-6)
}

func TestConstantVelocity(t *testing.T) {
	start := geom.NewBox(0, 0, 100, 200)
	kf := NewFilter(start)
	const step = 5.0
	for i := 1; i <= 40; i++ {
		kf.Predict()
		require.NoError(t, kf.Update(start.Translate(step*float64(i), step*float64(i)/2)))
	}
	vx, vy := kf.Velocity()
	assert.InDelta(t, step, vx, 0.5)
	assert.InDelta(t, step/2, vy, 0.5)

	// extrapolate without measurements
	for range 5 {
		kf.Predict()
	}
	want := start.Translate(step*45, step*45/2)
	got := kf.Box()
	t.Logf("want %v got %v", want, got)
	assert.Greater(t, geom.IoU(want, got), 0.9)
}

func TestSizeNeverNegative(t *testing.T) {
	kf := NewFilter(geom.NewBox(0, 0, 40, 40))
	for i := 1; i <= 10; i++ {
		kf.Predict()
		side := 40 - 4*float64(i)
		require.NoError(t, kf.Update(geom.NewBox(0, 0, side, side)))
	}
	for range 50 {
		kf.Predict()
		b := kf.Box()
		assert.GreaterOrEqual(t, b.Width(), 0.0)
		assert.GreaterOrEqual(t, b.Height(), 0.0)
	}
}

func TestFreeze(t *testing.T) {
	kf := NewFilter(geom.NewBox(0, 0, 10, 10))
	for i := 1; i <= 10; i++ {
		kf.Predict()
		require.NoError(t, kf.Update(geom.NewBox(0, 0, 10+float64(i), 10+float64(i))))
	}
	kf.Freeze()
	before := kf.Box()
	kf.Predict()
	after := kf.Box()
	assert.InDelta(t, before.Width(), after.Width(), 1e-9)
	assert.InDelta(t, before.Height(), after.Height(), 1e-9)
	assert.False(t, math.IsNaN(after.X1))
	assert.Len(t, kf.State(), 8)
}
