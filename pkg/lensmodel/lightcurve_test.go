package lensmodel

import(
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightCurveAt(t *testing.T) {
	lc := LightCurve{
		Times:      []float64{0, 10, 20},
		MagOffsets: []float64{0, 1, -1},
	}

	tests := []struct{ t, want float64 }{
		{-5, 0},    // held before the first sample
		{0, 0},
		{5, 0.5},
		{10, 1},
		{15, 0},
		{17.5, -0.5},
		{20, -1},
		{99, -1},   // held after the last sample
	}
	for _, tc := range tests {
		got, err := lc.At(tc.t)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-12, "t=%v", tc.t)
	}
}

func TestLightCurveSingleSample(t *testing.T) {
	lc := LightCurve{Times: []float64{3}, MagOffsets: []float64{0.7}}
	for _, tt := range []float64{-1, 3, 100} {
		got, err := lc.At(tt)
		require.NoError(t, err)
		assert.Equal(t, 0.7, got)
	}
}

func TestLightCurveValidate(t *testing.T) {
	assert.Error(t, LightCurve{}.Validate())
	assert.Error(t, LightCurve{Times: []float64{0, 1}, MagOffsets: []float64{0}}.Validate())
	assert.Error(t, LightCurve{Times: []float64{0, 1, 1}, MagOffsets: []float64{0, 0, 0}}.Validate())
	assert.Error(t, LightCurve{Times: []float64{2, 1}, MagOffsets: []float64{0, 0}}.Validate())
	assert.NoError(t, LightCurve{Times: []float64{1, 2}, MagOffsets: []float64{0, 0}}.Validate())

	_, err := LightCurve{Times: []float64{2, 1}, MagOffsets: []float64{0, 0}}.At(1.5)
	assert.Error(t, err)
}
