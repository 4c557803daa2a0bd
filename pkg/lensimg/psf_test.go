package lensimg

import(
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func TestPSFKernelValidate(t *testing.T) {
	tests := []struct{
		name string
		rows [][]float64
	}{
		{"even", [][]float64{{1, 0}, {0, 0}}},
		{"not square", [][]float64{{1, 0, 0}, {0, 0, 0}}},
		{"nan", [][]float64{{math.NaN()}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPSFKernelFromRows(tc.rows)
			assert.ErrorIs(t, err, ErrBadKernel)
		})
	}

	_, err := NewPSFKernelFromRows(nil)
	assert.ErrorIs(t, err, ErrBadKernel)

	assert.ErrorIs(t, PSFKernel{}.Validate(), ErrBadKernel)

	k, err := NewPSFKernelFromRows([][]float64{{2}})
	require.NoError(t, err)
	assert.Equal(t, 1, k.Size())
	assert.Equal(t, 0, k.Half())
}

func TestGaussianKernel(t *testing.T) {
	k, err := GaussianKernel(2.0, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, k.Size())
	assert.InDelta(t, 1.0, k.Sum(), 1e-12)

	// Peak in the middle, symmetric
	assert.Equal(t, k.Max(), k.Get(4, 4))
	assert.InDelta(t, k.Get(2, 4), k.Get(6, 4), 1e-15)
	assert.InDelta(t, k.Get(4, 1), k.Get(1, 4), 1e-15)

	// Half maximum at one FWHM/2 from the centre
	k2, err := GaussianKernel(2.0, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, k2.Get(3, 2)/k2.Get(2, 2), 1e-12)

	_, err = GaussianKernel(2.0, 4)
	assert.ErrorIs(t, err, ErrBadKernel)
	_, err = GaussianKernel(0, 5)
	assert.ErrorIs(t, err, ErrBadKernel)
}

func TestPSFKernelNormalize(t *testing.T) {
	k, err := NewPSFKernelFromRows([][]float64{{0, 1, 0}, {1, 4, 1}, {0, 1, 0}})
	require.NoError(t, err)

	n, err := k.Normalize()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, n.Sum(), 1e-12)
	assert.InDelta(t, 0.5, n.Get(1, 1), 1e-12)
	assert.Equal(t, 8.0, k.Sum(), "original is untouched")

	z, _ := NewPSFKernelFromRows([][]float64{{0}})
	_, err = z.Normalize()
	assert.ErrorIs(t, err, ErrBadKernel)
}

func TestLoadPSFKernelTIFF(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 3, 3))
	img.SetGray16(1, 1, color.Gray16{0xFFFF})
	img.SetGray16(1, 0, color.Gray16{0x8000})
	img.SetGray16(0, 1, color.Gray16{0x8000})

	filename := filepath.Join(t.TempDir(), "psf.tif")
	f, err := os.Create(filename)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, img, nil))
	require.NoError(t, f.Close())

	k, err := LoadPSFKernelTIFF(filename)
	require.NoError(t, err)
	assert.Equal(t, 3, k.Size())
	assert.InDelta(t, 1.0, k.Sum(), 1e-12)
	assert.Equal(t, k.Max(), k.Get(1, 1))
	assert.Equal(t, 0.0, k.Get(2, 2))

	_, err = LoadPSFKernelTIFF(filepath.Join(t.TempDir(), "nope.tif"))
	assert.Error(t, err)
}
