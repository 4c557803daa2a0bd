package lensimg

import(
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/abworrall/lensimg/pkg/emath"
)

// LensImages is what the pipeline hands back: either a single image
// (Epochs == nil), or one image per observation time, in the same order.
type LensImages struct {
	Epochs []float64
	Images []emath.FloatGrid
}

func (li LensImages)IsTimeSeries() bool { return li.Epochs != nil }

// Image returns the single static image; for a time series, the first epoch.
func (li LensImages)Image() emath.FloatGrid {
	if len(li.Images) == 0 {
		return emath.FloatGrid{}
	}
	return li.Images[0]
}

func (li LensImages)String() string {
	if !li.IsTimeSeries() {
		img := li.Image()
		return fmt.Sprintf("LensImages[static %dx%d, %s]", img.Dx(), img.Dy(), img.Stats())
	}
	return fmt.Sprintf("LensImages[%d epochs]", len(li.Images))
}

// A Pipeline turns a lens system plus an observing request into pixels.
type Pipeline struct {
	Config
	Renderer ExtendedRenderer
}

func NewPipeline(c Config, r ExtendedRenderer) Pipeline {
	return Pipeline{Config: c, Renderer: r}
}

// LensImage renders ls as observed by req. Everything that can be
// checked (source type, sequence lengths, transforms, kernels) is
// checked before any rendering starts; on any error, no images come back.
func (p Pipeline)LensImage(ls LensSystem, req Request) (LensImages, error) {
	st := ls.SourceType()
	if !st.IsValid() {
		return LensImages{}, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, st)
	}
	if !st.HasPointSource() && req.HasTimeSeries() {
		return LensImages{}, fmt.Errorf("%w: source type '%s' has no light curve, but %d observation times given",
			ErrTimeSeriesUnsupported, st, len(req.TObs))
	}
	if err := req.Validate(); err != nil {
		return LensImages{}, err
	}
	convolve, err := p.GetConvolver()
	if err != nil {
		return LensImages{}, err
	}

	log.Debugf("LensImage: %s, band '%s', %dx%d @ %g\"/pix, timeseries=%v, noise=%v",
		st, req.Band, req.NumPix, req.NumPix, req.PixelScale, req.HasTimeSeries(), req.AddNoise)

	var out LensImages
	switch {
	case !st.HasPointSource():
		out, err = p.extendedImage(ls, req, convolve)
	case !req.HasTimeSeries():
		out, err = p.pointSourceImage(ls, req, convolve)
	default:
		out, err = p.pointSourceTimeSeries(ls, req, convolve)
	}
	if err != nil {
		return LensImages{}, err
	}

	if req.AddNoise {
		nm := NewNoiseModel(p.Seed)
		noisy, err := nm.AddPoissonNoiseAll(out.Images, req.ExposureTimes)
		if err != nil {
			return LensImages{}, fmt.Errorf("add noise: %w", err)
		}
		out.Images = noisy
	}

	for i := range out.Images {
		p.maybeDumpGrid(&out.Images[i], fmt.Sprintf("final %d", i), fmt.Sprintf("final%03d", i))
	}
	log.Debugf("LensImage: %s", out)

	return out, nil
}

// staticGrid is the one grid used when there is no time series.
func (p Pipeline)staticGrid(req Request) (PixelGrid, error) {
	return NewPixelGrid(req.NumPix, req.PixelScale, req.transform(0))
}

func (p Pipeline)extendedImage(ls LensSystem, req Request, convolve ConvolveFunc) (LensImages, error) {
	g, err := p.staticGrid(req)
	if err != nil {
		return LensImages{}, err
	}

	sel := RenderSelection{WithSource: true, WithDeflector: true}
	sharp, err := SharpImage(ls, p.Renderer, req.Band, req.ZeroPoints[0], g, sel)
	if err != nil {
		return LensImages{}, err
	}
	p.maybeDumpGrid(&sharp, "sharp", "sharp")

	img, err := convolve(sharp, req.PSFKernels[0])
	if err != nil {
		return LensImages{}, fmt.Errorf("convolve sharp image: %w", err)
	}

	return LensImages{Images: []emath.FloatGrid{img}}, nil
}

func (p Pipeline)pointSourceImage(ls LensSystem, req Request, convolve ConvolveFunc) (LensImages, error) {
	g, err := p.staticGrid(req)
	if err != nil {
		return LensImages{}, err
	}
	psf := req.PSFKernels[0]
	zp := req.ZeroPoints[0]

	// Check the grid and build the point images before rendering the (expensive) extended light
	pointImgs, err := PointSourceImagesWithoutVariability(ls, req.Band, g, psf, zp)
	if err != nil {
		return LensImages{}, err
	}

	sharp, err := SharpImage(ls, p.Renderer, req.Band, zp, g, RenderSelection{WithSource: true, WithDeflector: true})
	if err != nil {
		return LensImages{}, err
	}
	p.maybeDumpGrid(&sharp, "sharp", "sharp")

	img, err := convolve(sharp, psf)
	if err != nil {
		return LensImages{}, fmt.Errorf("convolve sharp image: %w", err)
	}
	for i, pImg := range pointImgs {
		if err := img.AddInPlace(pImg); err != nil {
			return LensImages{}, fmt.Errorf("lensed image %d: %v", i, err)
		}
	}

	return LensImages{Images: []emath.FloatGrid{img}}, nil
}

func (p Pipeline)pointSourceTimeSeries(ls LensSystem, req Request, convolve ConvolveFunc) (LensImages, error) {
	epochs, err := req.Epochs()
	if err != nil {
		return LensImages{}, err
	}

	// Every epoch's grid has to be good before we render any of them
	for _, e := range epochs {
		if _, err := NewPixelGrid(req.NumPix, req.PixelScale, e.Transform); err != nil {
			return LensImages{}, fmt.Errorf("%s: %w", e, err)
		}
	}

	c := Compositor{Config: p.Config, Renderer: p.Renderer, Convolve: convolve}
	imgs, err := c.RenderEpochs(ls, req.Band, req.NumPix, req.PixelScale, epochs)
	if err != nil {
		return LensImages{}, err
	}

	times := append([]float64{}, req.TObs...)
	return LensImages{Epochs: times, Images: imgs}, nil
}
