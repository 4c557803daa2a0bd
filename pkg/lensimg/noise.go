package lensimg

import(
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/abworrall/lensimg/pkg/emath"
)

// A NoiseModel adds photon-counting (Poisson) noise. Every image gets
// its own random stream, picked by its index, so results don't depend
// on which goroutine gets there first.
type NoiseModel struct {
	Seed uint64
}

func NewNoiseModel(seed uint64) NoiseModel { return NoiseModel{Seed: seed} }

// Stream returns the random source for image i.
func (nm NoiseModel)Stream(i int) rand.Source {
	return rand.NewPCG(nm.Seed, uint64(i))
}

// AddPoissonNoise returns a noisy copy of img, at the given exposure
// time (seconds), using stream i. Negative flux is clipped to zero
// first; the input image is left alone.
func (nm NoiseModel)AddPoissonNoise(img emath.FloatGrid, exposureTime float64, i int) (emath.FloatGrid, error) {
	return addPoissonNoise(img, exposureTime, nm.Stream(i))
}

// AddPoissonNoiseAll noises a sequence of images, one exposure time
// per image (or a single time for all of them).
func (nm NoiseModel)AddPoissonNoiseAll(imgs []emath.FloatGrid, exposureTimes []float64) ([]emath.FloatGrid, error) {
	if len(exposureTimes) != 1 && len(exposureTimes) != len(imgs) {
		return nil, fmt.Errorf("%w: %d images vs %d exposure times", ErrConfigMismatch, len(imgs), len(exposureTimes))
	}

	out := make([]emath.FloatGrid, len(imgs))
	for i := range imgs {
		expTime := exposureTimes[0]
		if len(exposureTimes) > 1 {
			expTime = exposureTimes[i]
		}
		noisy, err := nm.AddPoissonNoise(imgs[i], expTime, i)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out[i] = noisy
	}
	return out, nil
}

func addPoissonNoise(img emath.FloatGrid, exposureTime float64, src rand.Source) (emath.FloatGrid, error) {
	if !(exposureTime > 0) || !emath.IsFinite(exposureTime) {
		return emath.FloatGrid{}, fmt.Errorf("%w: exposure time %v, need > 0", ErrConfigMismatch, exposureTime)
	}
	if !img.IsFinite() {
		return emath.FloatGrid{}, fmt.Errorf("%w: image has NaN/Inf pixels, can't add noise", ErrNonFinite)
	}

	out := img.Copy()
	out.FloorAt(0.0) // negative flux is unphysical, and a negative mean breaks Poisson

	vals := out.Values()
	for i, flux := range vals {
		meanPhotons := flux * exposureTime
		if meanPhotons == 0 {
			continue
		}
		if !emath.IsFinite(meanPhotons) {
			return emath.FloatGrid{}, fmt.Errorf("%w: pixel %d, flux %g over %gs overflows the photon count", ErrNonFinite, i, flux, exposureTime)
		}
		p := distuv.Poisson{Lambda: meanPhotons, Src: src}
		vals[i] = p.Rand() / exposureTime
	}

	return *out, nil
}
