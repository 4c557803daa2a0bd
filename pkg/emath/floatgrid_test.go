package emath

import(
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatGridBasics(t *testing.T) {
	g := NewFloatGrid(3, 2)
	assert.Equal(t, 3, g.Dx())
	assert.Equal(t, 2, g.Dy())
	assert.True(t, g.InBounds(2, 1))
	assert.False(t, g.InBounds(3, 0))
	assert.False(t, g.InBounds(0, -1))

	g.Set(2, 1, 5)
	g.Inc(2, 1, 1.5)
	assert.Equal(t, 6.5, g.Get(2, 1))
	assert.Equal(t, 6.5, g.Values()[1*3+2])
	assert.Equal(t, 6.5, g.Sum())
	assert.Equal(t, 6.5, g.Max())
	assert.Equal(t, 0.0, g.Min())

	var empty FloatGrid
	assert.Equal(t, 0, empty.Dx())
	assert.Equal(t, 0, empty.Dy())
}

func TestFloatGridFromRows(t *testing.T) {
	g, err := NewFloatGridFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Dx())
	assert.Equal(t, 2, g.Dy())
	assert.Equal(t, 6.0, g.Get(2, 1))
	assert.Equal(t, 2.0, g.Get(1, 0))

	_, err = NewFloatGridFromRows([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
	_, err = NewFloatGridFromRows(nil)
	assert.Error(t, err)
}

func TestFloatGridCopyIsDeep(t *testing.T) {
	g := NewFloatGrid(2, 2)
	g.Set(0, 0, 1)
	c := g.Copy()
	c.Set(0, 0, 99)
	assert.Equal(t, 1.0, g.Get(0, 0))
	assert.Equal(t, 99.0, c.Get(0, 0))
}

func TestFloatGridArithmetic(t *testing.T) {
	a, _ := NewFloatGridFromRows([][]float64{{1, -2}, {3, -4}})
	b, _ := NewFloatGridFromRows([][]float64{{10, 20}, {30, 40}})

	require.NoError(t, a.AddInPlace(b))
	assert.Equal(t, []float64{11, 18, 33, 36}, a.Values())

	a.Scale(0.5)
	assert.Equal(t, []float64{5.5, 9, 16.5, 18}, a.Values())

	assert.Error(t, a.AddInPlace(NewFloatGrid(3, 1)))

	n, _ := NewFloatGridFromRows([][]float64{{1, -2}, {-3, 4}})
	assert.Equal(t, 2, n.FloorAt(0))
	assert.Equal(t, []float64{1, 0, 0, 4}, n.Values())
}

func TestSumGrids(t *testing.T) {
	a, _ := NewFloatGridFromRows([][]float64{{1, 2}})
	b, _ := NewFloatGridFromRows([][]float64{{3, 4}})

	s, err := SumGrids([]FloatGrid{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 6}, s.Values())
	assert.Equal(t, []float64{1, 2}, a.Values(), "inputs are untouched")

	_, err = SumGrids(nil)
	assert.Error(t, err)
	_, err = SumGrids([]FloatGrid{a, NewFloatGrid(1, 1)})
	assert.Error(t, err)
}

func TestFloatGridIsFinite(t *testing.T) {
	g := NewFloatGrid(2, 2)
	assert.True(t, g.IsFinite())
	g.Set(1, 1, math.NaN())
	assert.False(t, g.IsFinite())
	g.Set(1, 1, math.Inf(1))
	assert.False(t, g.IsFinite())
}

func TestFloatGridToImg(t *testing.T) {
	g := NewFloatGrid(16, 16)
	for x:=0; x<16; x++ {
		g.Set(x, x, float64(x))
	}
	filename := filepath.Join(t.TempDir(), "grid.png")
	require.NoError(t, g.ToImg("diag", filename))

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
