package lensimg

import(
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagnitudeToAmplitude(t *testing.T) {
	amp, err := MagnitudeToAmplitude(25, 25)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, amp, 1e-12)

	amp, err = MagnitudeToAmplitude(20, 25)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, amp, 1e-9)

	amp, err = MagnitudeToAmplitude(30, 25)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, amp, 1e-12)
}

func TestMagnitudeToAmplitudeMonotonic(t *testing.T) {
	prev := 0.0
	for mag := 35.0; mag >= 10; mag -= 0.25 {
		amp, err := MagnitudeToAmplitude(mag, 27.5)
		require.NoError(t, err)
		assert.Greater(t, amp, 0.0)
		assert.Greater(t, amp, prev, "mag %v", mag)
		prev = amp
	}
}

func TestMagnitudeToAmplitudeNonFinite(t *testing.T) {
	for _, tc := range []struct{ mag, zp float64 }{
		{math.NaN(), 25},
		{20, math.Inf(1)},
		{math.Inf(-1), 25},
		{-2000, 25}, // overflows
	} {
		_, err := MagnitudeToAmplitude(tc.mag, tc.zp)
		assert.ErrorIs(t, err, ErrNonFinite, "mag %v zp %v", tc.mag, tc.zp)
	}
}

func TestMagnitudesToAmplitudes(t *testing.T) {
	amps, err := MagnitudesToAmplitudes([]float64{25, 20}, []float64{25})
	require.NoError(t, err)
	require.Len(t, amps, 2)
	assert.InDelta(t, 1.0, amps[0], 1e-12)
	assert.InDelta(t, 100.0, amps[1], 1e-9)

	amps, err = MagnitudesToAmplitudes([]float64{25, 25}, []float64{25, 30})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, amps[1], 1e-9)

	_, err = MagnitudesToAmplitudes([]float64{25, 25, 25}, []float64{25, 30})
	assert.ErrorIs(t, err, ErrConfigMismatch)
}
