package lensimg

import(
	"fmt"
	"sync/atomic"

	"github.com/abworrall/lensimg/pkg/emath"
)

// fakeLens is a LensSystem with canned answers.
type fakeLens struct {
	st        SourceType
	deflector SkyPos
	images    []SkyPos
	mags      []float64                   // static magnitudes
	magsAt    func(t float64) []float64   // if nil, the static ones are used at every time
	params    ModelParams
}

func (fl fakeLens)SourceType() SourceType    { return fl.st }
func (fl fakeLens)DeflectorPosition() SkyPos { return fl.deflector }
func (fl fakeLens)ImagePositions() []SkyPos  { return fl.images }

func (fl fakeLens)PointSourceMagnitudes(band string, t *float64) ([]float64, error) {
	if band != "i" {
		return nil, fmt.Errorf("no band %q", band)
	}
	if t != nil && fl.magsAt != nil {
		return fl.magsAt(*t), nil
	}
	return fl.mags, nil
}

func (fl fakeLens)ModelParams(band string) (ModelParams, error) {
	if band != "i" {
		return ModelParams{}, fmt.Errorf("no band %q", band)
	}
	return fl.params, nil
}

// fakeRenderer puts all the selected flux into the centre pixel, and
// counts how often it gets called.
type fakeRenderer struct {
	calls *atomic.Int32
}

func newFakeRenderer() fakeRenderer { return fakeRenderer{calls: &atomic.Int32{}} }

func (fr fakeRenderer)RenderSharp(g PixelGrid, model ModelParams, sel RenderSelection) (emath.FloatGrid, error) {
	fr.calls.Add(1)

	flux := 0.0
	if sel.WithSource {
		for _, lc := range model.Source {
			flux += lc.Amplitude
		}
	}
	if sel.WithDeflector {
		for _, lc := range model.Deflector {
			flux += lc.Amplitude
		}
	}

	img := g.NewImage()
	c := g.NumPix / 2
	img.Set(c, c, flux)
	return img, nil
}

func deltaPSF() PSFKernel {
	k, err := NewPSFKernelFromRows([][]float64{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}})
	if err != nil {
		panic(err)
	}
	return k
}

func gaussianPSF() PSFKernel {
	k, err := GaussianKernel(1.5, 5)
	if err != nil {
		panic(err)
	}
	return k
}
