package lensimg

import(
	"fmt"
	"image"
	"math"
	"os"

	"golang.org/x/image/tiff"

	"github.com/abworrall/lensimg/pkg/emath"
)

// A PSFKernel is a pixel-sampled point spread function: square, odd
// sized, centred on the middle pixel. It is never modified while
// rendering, and never renormalized behind the caller's back.
type PSFKernel struct {
	emath.FloatGrid
}

func NewPSFKernel(g emath.FloatGrid) (PSFKernel, error) {
	k := PSFKernel{g}
	return k, k.Validate()
}

// NewPSFKernelFromRows is handy for literals in config files and tests.
func NewPSFKernelFromRows(rows [][]float64) (PSFKernel, error) {
	g, err := emath.NewFloatGridFromRows(rows)
	if err != nil {
		return PSFKernel{}, fmt.Errorf("%w: %v", ErrBadKernel, err)
	}
	return NewPSFKernel(g)
}

func (k PSFKernel)Size() int { return k.Dx() }
func (k PSFKernel)Half() int { return (k.Dx() - 1) / 2 }

func (k PSFKernel)Validate() error {
	w, h := k.Dx(), k.Dy()
	switch {
	case w == 0 || h == 0:
		return fmt.Errorf("%w: empty", ErrBadKernel)
	case w != h:
		return fmt.Errorf("%w: %dx%d is not square", ErrBadKernel, w, h)
	case w%2 == 0:
		return fmt.Errorf("%w: size %d is not odd", ErrBadKernel, w)
	case !k.IsFinite():
		return fmt.Errorf("%w: non-finite values", ErrBadKernel)
	}
	return nil
}

// Normalize returns a copy that sums to one.
func (k PSFKernel)Normalize() (PSFKernel, error) {
	sum := k.Sum()
	if sum == 0 || !emath.IsFinite(sum) {
		return PSFKernel{}, fmt.Errorf("%w: can't normalize, sum=%v", ErrBadKernel, sum)
	}
	g := k.Copy()
	g.Scale(1.0 / sum)
	return PSFKernel{*g}, nil
}

func (k PSFKernel)String() string {
	return fmt.Sprintf("PSF[%dx%d, sum %.4f]", k.Dx(), k.Dy(), k.Sum())
}

// GaussianKernel is a unit-sum circular Gaussian, with the given
// FWHM in pixels, sampled at pixel centres.
func GaussianKernel(fwhmPix float64, size int) (PSFKernel, error) {
	if size < 1 || size%2 == 0 {
		return PSFKernel{}, fmt.Errorf("%w: size %d must be odd and positive", ErrBadKernel, size)
	}
	if !(fwhmPix > 0) || math.IsInf(fwhmPix, 0) {
		return PSFKernel{}, fmt.Errorf("%w: fwhm %v", ErrBadKernel, fwhmPix)
	}

	sigma := fwhmPix / (2.0 * math.Sqrt(2.0*math.Ln2))
	half := (size - 1) / 2
	g := emath.NewFloatGrid(size, size)
	for y:=0; y<size; y++ {
		for x:=0; x<size; x++ {
			dx, dy := float64(x-half), float64(y-half)
			g.Set(x, y, math.Exp(-(dx*dx + dy*dy) / (2*sigma*sigma)))
		}
	}

	return PSFKernel{g}.Normalize()
}

// LoadPSFKernelTIFF reads a grayscale TIFF (16 bit is best) as a PSF,
// normalized to unit sum since TIFF pixel values have no absolute scale.
func LoadPSFKernelTIFF(filename string) (PSFKernel, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return PSFKernel{}, fmt.Errorf("open+r psf '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := tiff.Decode(reader)
	if err != nil {
		return PSFKernel{}, fmt.Errorf("tiff loading '%s': %v", filename, err)
	}

	k := PSFKernel{imageToGrid(img)}
	if err := k.Validate(); err != nil {
		return PSFKernel{}, fmt.Errorf("psf '%s': %w", filename, err)
	}
	return k.Normalize()
}

func imageToGrid(img image.Image) emath.FloatGrid {
	b := img.Bounds()
	g := emath.NewFloatGrid(b.Dx(), b.Dy())
	for x:=b.Min.X; x<b.Max.X; x++ {
		for y:=b.Min.Y; y<b.Max.Y; y++ {
			r, gg, bb, _ := img.At(x, y).RGBA()
			gray := (float64(r) + float64(gg) + float64(bb)) / 3.0 / float64(0xFFFF)
			g.Set(x-b.Min.X, y-b.Min.Y, gray)
		}
	}
	return g
}
