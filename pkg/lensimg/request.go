package lensimg

import(
	"fmt"

	"github.com/abworrall/lensimg/pkg/emath"
)

// A Request describes the images wanted from the pipeline.
//
// Without a time series (TObs == nil) ZeroPoints and PSFKernels hold
// exactly one entry, Transforms at most one. With a time series of K
// observation times, each of them holds K entries (Transforms may be
// empty, meaning the default orientation every time).
type Request struct {
	Band          string
	NumPix        int
	PixelScale    float64

	ZeroPoints    []float64
	PSFKernels    []PSFKernel
	Transforms    []emath.Mat2

	AddNoise      bool
	ExposureTimes []float64  // seconds; one, or one per epoch

	TObs          []float64  // observation times (days); nil for a single static image
}

func (req Request)HasTimeSeries() bool { return req.TObs != nil }

// An Epoch is one observation: when, how it was calibrated, and what the instrument did to it.
type Epoch struct {
	Index     int
	Time      float64
	ZeroPoint float64
	PSF       PSFKernel
	Transform emath.Mat2
}

func (e Epoch)String() string {
	return fmt.Sprintf("Epoch[%d t=%.3f zp=%.3f %s T=%s]", e.Index, e.Time, e.ZeroPoint, e.PSF, e.Transform)
}

// Validate checks all the sequence lengths, before any work is done.
func (req Request)Validate() error {
	n := 1
	if req.HasTimeSeries() {
		n = len(req.TObs)
		if n == 0 {
			return fmt.Errorf("%w: empty observation time series", ErrConfigMismatch)
		}
		if !emath.AllFinite(req.TObs) {
			return fmt.Errorf("%w: observation times", ErrNonFinite)
		}
	}

	if len(req.ZeroPoints) != n {
		return fmt.Errorf("%w: %d zero points, want %d", ErrConfigMismatch, len(req.ZeroPoints), n)
	}
	if !emath.AllFinite(req.ZeroPoints) {
		return fmt.Errorf("%w: zero points %v", ErrNonFinite, req.ZeroPoints)
	}
	if len(req.PSFKernels) != n {
		return fmt.Errorf("%w: %d PSF kernels, want %d", ErrConfigMismatch, len(req.PSFKernels), n)
	}
	if len(req.Transforms) != 0 && len(req.Transforms) != n {
		return fmt.Errorf("%w: %d transforms, want %d", ErrConfigMismatch, len(req.Transforms), n)
	}
	for i, psf := range req.PSFKernels {
		if err := psf.Validate(); err != nil {
			return fmt.Errorf("PSF kernel %d: %w", i, err)
		}
	}

	if req.AddNoise {
		if len(req.ExposureTimes) != 1 && len(req.ExposureTimes) != n {
			return fmt.Errorf("%w: %d exposure times for %d images", ErrConfigMismatch, len(req.ExposureTimes), n)
		}
		for _, t := range req.ExposureTimes {
			if !(t > 0) || !emath.IsFinite(t) {
				return fmt.Errorf("%w: exposure time %v, need > 0", ErrConfigMismatch, t)
			}
		}
	}

	return nil
}

func (req Request)transform(i int) emath.Mat2 {
	if len(req.Transforms) == 0 {
		return DefaultTransform(req.PixelScale)
	}
	return req.Transforms[i]
}

// Epochs unpacks the parallel sequences into one Epoch per observation time.
func (req Request)Epochs() ([]Epoch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.HasTimeSeries() {
		return nil, fmt.Errorf("%w: no observation times", ErrConfigMismatch)
	}

	epochs := make([]Epoch, len(req.TObs))
	for i := range req.TObs {
		epochs[i] = Epoch{
			Index:     i,
			Time:      req.TObs[i],
			ZeroPoint: req.ZeroPoints[i],
			PSF:       req.PSFKernels[i],
			Transform: req.transform(i),
		}
	}
	return epochs, nil
}
