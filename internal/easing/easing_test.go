package easing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointExactness(t *testing.T) {
	for _, name := range Names() {
		curve, err := ForName(name)
		require.NoError(t, err)

		assert.Equal(t, 0.0, curve(0), "curve %s at t=0", name)
		assert.Equal(t, 1.0, curve(1), "curve %s at t=1", name)
	}
}

func TestMonotonic(t *testing.T) {
	const steps = 1000

	for _, name := range Names() {
		curve, err := ForName(name)
		require.NoError(t, err)

		prev := curve(0)
		for i := 1; i <= steps; i++ {
			v := curve(float64(i) / steps)
			assert.GreaterOrEqual(t, v, prev, "curve %s not monotonic at step %d", name, i)
			prev = v
		}
	}
}

func TestRange(t *testing.T) {
	const steps = 200

	for _, name := range Names() {
		curve, err := ForName(name)
		require.NoError(t, err)

		for i := 0; i <= steps; i++ {
			v := curve(float64(i) / steps)
			assert.True(t, v >= 0 && v <= 1, "curve %s out of range at t=%f: %f", name, float64(i)/steps, v)
		}
	}
}

func TestKnownValues(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want float64
	}{
		{"linear", 0.25, 0.25},
		{"ease-in", 0.5, 0.25},
		{"ease-out", 0.5, 0.75},
		{"ease-in-out", 0.5, 0.5},
		{"ease-in-out", 0.25, 0.15625},
		{"exponential", 0.5, (math.Pow(2, 5) - 1) / 1023},
	}

	for _, tt := range tests {
		curve, err := ForName(tt.name)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, curve(tt.t), 1e-12, "%s(%f)", tt.name, tt.t)
	}
}

func TestForNameUnknown(t *testing.T) {
	_, err := ForName("bounce")
	require.Error(t, err)
}

func TestLerp(t *testing.T) {
	assert.Equal(t, 5500.0, Lerp(5000, 6000, 0.5))
	assert.Equal(t, 5000.0, Lerp(5000, 6000, 0))
	assert.Equal(t, 6000.0, Lerp(5000, 6000, 1))
}
