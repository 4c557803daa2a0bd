package lensimg

import(
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/lensimg/pkg/emath"
)

func directConfig() Config {
	c := NewConfig()
	c.Convolver = "direct"
	c.Workers = 3
	return c
}

func extendedLens() fakeLens {
	return fakeLens{
		st: Extended,
		params: ModelParams{
			Deflector: []LightComponent{{Profile: "SERSIC", Magnitude: 20}},
			Source:    []LightComponent{{Profile: "SERSIC", Magnitude: 22.5}},
		},
	}
}

func TestLensImageExtended(t *testing.T) {
	r := newFakeRenderer()
	p := NewPipeline(directConfig(), r)
	req := staticRequest()
	req.PSFKernels = []PSFKernel{gaussianPSF()}

	li, err := p.LensImage(extendedLens(), req)
	require.NoError(t, err)
	assert.False(t, li.IsTimeSeries())
	require.Len(t, li.Images, 1)

	// Same thing, done by hand
	g, err := NewDefaultPixelGrid(9, 1)
	require.NoError(t, err)
	sharp, err := SharpImage(extendedLens(), r, "i", 25, g, RenderSelection{true, true})
	require.NoError(t, err)
	want, err := ConvolveDirect(sharp, gaussianPSF())
	require.NoError(t, err)

	got := li.Image()
	assert.Equal(t, want.Values(), got.Values())
	assert.InDelta(t, 110.0, got.Sum(), 1e-9) // 100 + 10
}

func TestLensImageExtendedRejectsTimeSeries(t *testing.T) {
	r := newFakeRenderer()
	p := NewPipeline(directConfig(), r)

	_, err := p.LensImage(extendedLens(), seriesRequest(0, 10))
	assert.ErrorIs(t, err, ErrTimeSeriesUnsupported)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestLensImageUnsupportedSourceType(t *testing.T) {
	r := newFakeRenderer()
	p := NewPipeline(directConfig(), r)

	for _, st := range []SourceType{SourceTypeUnknown, SourceType(17)} {
		ls := extendedLens()
		ls.st = st
		_, err := p.LensImage(ls, staticRequest())
		assert.ErrorIs(t, err, ErrUnsupportedSourceType)

		_, err = p.LensImage(ls, seriesRequest(1, 2))
		assert.ErrorIs(t, err, ErrUnsupportedSourceType)
	}
	assert.Equal(t, int32(0), r.calls.Load())
}

func pointLens(st SourceType) fakeLens {
	return fakeLens{
		st:     st,
		images: []SkyPos{{0, 0}, {-2, 1}},
		mags:   []float64{20, 21},
	}
}

func TestLensImagePointSource(t *testing.T) {
	r := newFakeRenderer()
	p := NewPipeline(directConfig(), r)

	li, err := p.LensImage(pointLens(PointSource), staticRequest())
	require.NoError(t, err)
	require.Len(t, li.Images, 1)
	img := li.Image()

	// Delta PSF: each image lands whole on its pixel; no extended light
	assert.InDelta(t, 100.0, img.Get(4, 4), 1e-9)
	assert.InDelta(t, math.Pow(10, 1.6), img.Get(6, 5), 1e-9)
	assert.InDelta(t, 100.0+math.Pow(10, 1.6), img.Sum(), 1e-9)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestLensImagePointSourceIsSumOfParts(t *testing.T) {
	ls := pointLens(PointPlusExtendedSource)
	ls.images = []SkyPos{{0.3, -0.7}, {-1.6, 2.2}}
	ls.params.Deflector = []LightComponent{{Profile: "SERSIC", Magnitude: 19}}

	r := newFakeRenderer()
	p := NewPipeline(directConfig(), r)
	req := staticRequest()
	req.PSFKernels = []PSFKernel{gaussianPSF()}

	li, err := p.LensImage(ls, req)
	require.NoError(t, err)

	g, _ := NewDefaultPixelGrid(9, 1)
	points, err := PointSourceImagesWithoutVariability(ls, "i", g, gaussianPSF(), 25)
	require.NoError(t, err)
	require.Len(t, points, 2)
	sharp, err := SharpImage(ls, r, "i", 25, g, RenderSelection{true, true})
	require.NoError(t, err)
	want, err := ConvolveDirect(sharp, gaussianPSF())
	require.NoError(t, err)
	require.NoError(t, want.AddInPlace(points[0]))
	require.NoError(t, want.AddInPlace(points[1]))

	got := li.Image()
	for i := range want.Values() {
		assert.InDelta(t, want.Values()[i], got.Values()[i], 1e-9, "pixel %d", i)
	}
}

func TestLensImageTimeSeries(t *testing.T) {
	ls := pointLens(PointSource)
	ls.images = []SkyPos{{0, 0}}
	ls.magsAt = func(t float64) []float64 { return []float64{25 - 0.5*t} }

	cfg := directConfig()
	r := newFakeRenderer()
	p := NewPipeline(cfg, r)

	tObs := []float64{4, 0, 2, 1, 3, 5, 6}
	li, err := p.LensImage(ls, seriesRequest(tObs...))
	require.NoError(t, err)
	assert.True(t, li.IsTimeSeries())
	require.Len(t, li.Images, len(tObs))
	assert.Equal(t, tObs, li.Epochs)

	for i, tt := range tObs {
		want := math.Pow(10, 0.2*tt)
		assert.InDelta(t, want, li.Images[i].Sum(), 1e-9, "epoch %d (t=%v)", i, tt)
	}
	assert.Equal(t, int32(len(tObs)), r.calls.Load())
}

func TestLensImageTimeSeriesPerEpochInputs(t *testing.T) {
	ls := pointLens(PointSource)
	ls.images = []SkyPos{{1, 0}}
	ls.mags = []float64{25}

	req := seriesRequest(0, 1)
	req.ZeroPoints = []float64{25, 30}
	req.Transforms = []emath.Mat2{DefaultTransform(1), emath.Diag2(1, 1)}

	li, err := NewPipeline(directConfig(), newFakeRenderer()).LensImage(ls, req)
	require.NoError(t, err)
	require.Len(t, li.Images, 2)

	// RA +1 is left of centre by default, right of it when RA is flipped
	assert.InDelta(t, 1.0, li.Images[0].Get(3, 4), 1e-9)
	assert.InDelta(t, 100.0, li.Images[1].Get(5, 4), 1e-9)
}

func TestLensImageMismatchedEpochs(t *testing.T) {
	r := newFakeRenderer()
	p := NewPipeline(directConfig(), r)

	req := seriesRequest(0, 1, 2)
	req.PSFKernels = req.PSFKernels[:2]
	_, err := p.LensImage(pointLens(PointSource), req)
	assert.ErrorIs(t, err, ErrConfigMismatch)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestLensImageDegenerateEpochTransform(t *testing.T) {
	r := newFakeRenderer()
	p := NewPipeline(directConfig(), r)

	req := seriesRequest(0, 1, 2)
	req.Transforms = []emath.Mat2{DefaultTransform(1), emath.Diag2(0, 1), DefaultTransform(1)}
	_, err := p.LensImage(pointLens(PointSource), req)
	assert.ErrorIs(t, err, ErrDegenerateTransform)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestLensImageNoise(t *testing.T) {
	cfg := directConfig()
	cfg.Seed = 99
	ls := pointLens(PointSource)

	req := seriesRequest(0, 1, 2, 3)
	req.AddNoise = true
	req.ExposureTimes = []float64{100}

	li1, err := NewPipeline(cfg, newFakeRenderer()).LensImage(ls, req)
	require.NoError(t, err)
	cfg.Workers = 1
	li2, err := NewPipeline(cfg, newFakeRenderer()).LensImage(ls, req)
	require.NoError(t, err)

	require.Len(t, li1.Images, 4)
	for i := range li1.Images {
		assert.Equal(t, li1.Images[i].Values(), li2.Images[i].Values(), "epoch %d", i)
		for _, v := range li1.Images[i].Values() {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}

	req.ExposureTimes = nil
	_, err = NewPipeline(cfg, newFakeRenderer()).LensImage(ls, req)
	assert.ErrorIs(t, err, ErrConfigMismatch)
}

func TestLensImageBadConvolver(t *testing.T) {
	cfg := directConfig()
	cfg.Convolver = "nope"
	_, err := NewPipeline(cfg, newFakeRenderer()).LensImage(extendedLens(), staticRequest())
	assert.ErrorIs(t, err, ErrConfigMismatch)
}

func TestPointSourceImagesWithVariability(t *testing.T) {
	ls := pointLens(PointSource)
	ls.magsAt = func(t float64) []float64 { return []float64{25 - t, 25} }

	req := seriesRequest(0, 1, 2)
	epochs, err := req.Epochs()
	require.NoError(t, err)

	imgs, err := PointSourceImagesWithVariability(ls, "i", 9, 1, epochs)
	require.NoError(t, err)
	require.Len(t, imgs, 3)
	for i, img := range imgs {
		assert.InDelta(t, math.Pow(10, 0.4*float64(i))+1, img.Sum(), 1e-9, "epoch %d", i)
	}
}

func TestDeflectorImagesWithZeroPoints(t *testing.T) {
	g, err := NewDefaultPixelGrid(9, 1)
	require.NoError(t, err)

	imgs, err := DeflectorImagesWithZeroPoints(extendedLens(), newFakeRenderer(), "i", []float64{25, 27.5}, g)
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.InDelta(t, 110.0, imgs[0].Sum(), 1e-9)
	assert.InDelta(t, 1100.0, imgs[1].Sum(), 1e-9)
}

func TestLensImageDumpsGrids(t *testing.T) {
	cfg := directConfig()
	cfg.DumpGrids = true
	cfg.DumpPrefix = filepath.Join(t.TempDir(), "dump")

	_, err := NewPipeline(cfg, newFakeRenderer()).LensImage(extendedLens(), staticRequest())
	require.NoError(t, err)
	assert.FileExists(t, cfg.DumpPrefix+"-sharp.png")
	assert.FileExists(t, cfg.DumpPrefix+"-final000.png")
}

// Epochs built by hand may carry any Index; output order follows the slice.
func TestRenderEpochsHandBuiltEpochs(t *testing.T) {
	ls := pointLens(PointSource)
	ls.images = []SkyPos{{0, 0}}
	ls.magsAt = func(t float64) []float64 { return []float64{25 - 0.5*t} }

	c := Compositor{Config: directConfig(), Renderer: newFakeRenderer(), Convolve: ConvolveDirect}
	epoch := func(index int, tt float64) Epoch {
		return Epoch{Index: index, Time: tt, ZeroPoint: 25, PSF: deltaPSF(), Transform: DefaultTransform(1)}
	}

	tests := []struct {
		name   string
		epochs []Epoch
		times  []float64
	}{
		{"index unset", []Epoch{epoch(0, 0), epoch(0, 2)}, []float64{0, 2}},
		{"index out of range", []Epoch{epoch(5, 4)}, []float64{4}},
		{"index reversed", []Epoch{epoch(2, 6), epoch(1, 2), epoch(0, 0)}, []float64{6, 2, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			imgs, err := c.RenderEpochs(ls, "i", 9, 1, tc.epochs)
			require.NoError(t, err)
			require.Len(t, imgs, len(tc.times))
			for i, tt := range tc.times {
				assert.Equal(t, 9, imgs[i].Dx(), "epoch %d", i)
				assert.InDelta(t, math.Pow(10, 0.2*tt), imgs[i].Sum(), 1e-9, "epoch %d", i)
			}
		})
	}

	// A failure at any position returns no images
	bad := epoch(0, 0)
	bad.Transform = emath.Diag2(0, 1)
	imgs, err := c.RenderEpochs(ls, "i", 9, 1, []Epoch{epoch(0, 0), bad})
	assert.ErrorIs(t, err, ErrDegenerateTransform)
	assert.Nil(t, imgs)
}
