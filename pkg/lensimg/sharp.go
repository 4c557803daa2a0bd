package lensimg

import(
	"fmt"

	"github.com/abworrall/lensimg/pkg/emath"
)

// SharpImage renders the unconvolved extended light (source and/or
// deflector) of ls in band, at zeroPoint, onto grid. Point sources are
// never included; neither is any PSF or noise.
func SharpImage(ls LensSystem, r ExtendedRenderer, band string, zeroPoint float64, g PixelGrid, sel RenderSelection) (emath.FloatGrid, error) {
	params, err := ls.ModelParams(band)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("model params, band '%s': %w", band, err)
	}

	// Work on a copy, so the lens system's own components keep their magnitudes only
	model := params.Copy()
	if err := setAmplitudes(model.Source, zeroPoint); err != nil {
		return emath.FloatGrid{}, fmt.Errorf("source light: %w", err)
	}
	if err := setAmplitudes(model.Deflector, zeroPoint); err != nil {
		return emath.FloatGrid{}, fmt.Errorf("deflector light: %w", err)
	}

	img, err := r.RenderSharp(g, model, sel)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("render sharp image, band '%s': %w", band, err)
	}
	if img.Dx() != g.NumPix || img.Dy() != g.NumPix {
		return emath.FloatGrid{}, fmt.Errorf("%w: renderer gave %dx%d, grid is %dx%d",
			ErrConfigMismatch, img.Dx(), img.Dy(), g.NumPix, g.NumPix)
	}
	if !img.IsFinite() {
		return emath.FloatGrid{}, fmt.Errorf("%w: sharp image, band '%s'", ErrNonFinite, band)
	}

	return img, nil
}

// DeflectorImagesWithZeroPoints renders one sharp image per zero
// point (source and deflector light both included), all on one grid.
func DeflectorImagesWithZeroPoints(ls LensSystem, r ExtendedRenderer, band string, zeroPoints []float64, g PixelGrid) ([]emath.FloatGrid, error) {
	out := make([]emath.FloatGrid, len(zeroPoints))
	for i, zp := range zeroPoints {
		img, err := SharpImage(ls, r, band, zp, g, RenderSelection{WithSource: true, WithDeflector: true})
		if err != nil {
			return nil, fmt.Errorf("zero point %d (%g): %w", i, zp, err)
		}
		out[i] = img
	}
	return out, nil
}
