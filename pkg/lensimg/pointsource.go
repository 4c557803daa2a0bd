package lensimg

import(
	"fmt"
	"math"

	"github.com/abworrall/lensimg/pkg/emath"
)

// A LensedPoint is one lensed image to draw: where it is on the sky, and how bright.
type LensedPoint struct {
	SkyPos
	Amplitude float64
}

// RenderPointSource draws one PSF-weighted point source onto a fresh
// image the size of the grid. The PSF centre lands on the source's
// fractional pixel position, split bilinearly between the four
// surrounding pixel centres. Flux that falls off the edge is lost.
func RenderPointSource(g PixelGrid, psf PSFKernel, ps LensedPoint) (emath.FloatGrid, error) {
	img := g.NewImage()
	if err := addPointSource(&img, g, psf, ps); err != nil {
		return emath.FloatGrid{}, err
	}
	return img, nil
}

// RenderPointSources renders each point source onto its own image;
// they are not summed, so the caller can keep per-image bookkeeping.
func RenderPointSources(g PixelGrid, psf PSFKernel, sources []LensedPoint) ([]emath.FloatGrid, error) {
	if err := psf.Validate(); err != nil {
		return nil, err
	}

	out := make([]emath.FloatGrid, len(sources))
	for i, ps := range sources {
		img, err := RenderPointSource(g, psf, ps)
		if err != nil {
			return nil, fmt.Errorf("point source %d %s: %w", i, ps.SkyPos, err)
		}
		out[i] = img
	}
	return out, nil
}

func addPointSource(img *emath.FloatGrid, g PixelGrid, psf PSFKernel, ps LensedPoint) error {
	if !emath.IsFinite(ps.Amplitude) || !emath.IsFinite(ps.Ra) || !emath.IsFinite(ps.Dec) {
		return fmt.Errorf("%w: point source %s amp %v", ErrNonFinite, ps.SkyPos, ps.Amplitude)
	}

	px, py := g.MapCoord2Pix(ps.Ra, ps.Dec)
	x0, y0 := math.Floor(px), math.Floor(py)
	fx, fy := px-x0, py-y0

	// Miles off the grid: nothing to draw (and the int conversion below would be junk)
	reach := float64(psf.Half() + 2)
	if px < -reach || py < -reach || px > float64(g.NumPix)+reach || py > float64(g.NumPix)+reach {
		return nil
	}

	corners := []struct{ dx, dy int; w float64 }{
		{0, 0, (1-fx)*(1-fy)},
		{1, 0, fx*(1-fy)},
		{0, 1, (1-fx)*fy},
		{1, 1, fx*fy},
	}

	half, size := psf.Half(), psf.Size()
	for _, c := range corners {
		if c.w == 0 {
			continue
		}
		cx, cy := int(x0)+c.dx, int(y0)+c.dy
		scale := ps.Amplitude * c.w
		for ky:=0; ky<size; ky++ {
			for kx:=0; kx<size; kx++ {
				x, y := cx+kx-half, cy+ky-half
				if img.InBounds(x, y) {
					img.Inc(x, y, scale * psf.Get(kx, ky))
				}
			}
		}
	}

	return nil
}

// PointSourceImages renders every lensed image of ls, with amplitudes
// from the given magnitudes at zeroPoint. One image per lensed image.
func PointSourceImages(ls LensSystem, g PixelGrid, psf PSFKernel, mags []float64, zeroPoint float64) ([]emath.FloatGrid, error) {
	cp := PointSourceCoordinates(ls, g)
	if len(mags) != len(cp.ImageSky) {
		return nil, fmt.Errorf("%w: %d magnitudes for %d lensed images", ErrConfigMismatch, len(mags), len(cp.ImageSky))
	}

	amps, err := MagnitudesToAmplitudes(mags, []float64{zeroPoint})
	if err != nil {
		return nil, err
	}

	sources := make([]LensedPoint, len(amps))
	for i := range amps {
		sources[i] = LensedPoint{SkyPos: cp.ImageSky[i], Amplitude: amps[i]}
	}

	return RenderPointSources(g, psf, sources)
}

// PointSourceImagesWithoutVariability uses the static magnitudes.
func PointSourceImagesWithoutVariability(ls LensSystem, band string, g PixelGrid, psf PSFKernel, zeroPoint float64) ([]emath.FloatGrid, error) {
	mags, err := ls.PointSourceMagnitudes(band, nil)
	if err != nil {
		return nil, fmt.Errorf("point source magnitudes, band '%s': %w", band, err)
	}
	return PointSourceImages(ls, g, psf, mags, zeroPoint)
}

// PointSourceImagesAtTime uses the magnitudes at one observation time.
func PointSourceImagesAtTime(ls LensSystem, band string, g PixelGrid, psf PSFKernel, zeroPoint, t float64) ([]emath.FloatGrid, error) {
	mags, err := ls.PointSourceMagnitudes(band, &t)
	if err != nil {
		return nil, fmt.Errorf("point source magnitudes, band '%s' t=%g: %w", band, t, err)
	}
	return PointSourceImages(ls, g, psf, mags, zeroPoint)
}
