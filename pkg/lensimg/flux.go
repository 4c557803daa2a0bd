package lensimg

import(
	"fmt"
	"math"

	"github.com/abworrall/lensimg/pkg/emath"
)

// MagnitudeToAmplitude converts a magnitude into linear flux (counts/sec) at a zero point:
//   amp = 10^(-0.4 (mag - zp))
//
// Computed as a single Pow on the difference, so two nearby
// magnitudes don't lose their separation to cancellation.
func MagnitudeToAmplitude(mag, zeroPoint float64) (float64, error) {
	if !emath.IsFinite(mag) || !emath.IsFinite(zeroPoint) {
		return 0, fmt.Errorf("%w: magnitude %v at zero point %v", ErrNonFinite, mag, zeroPoint)
	}
	amp := math.Pow(10, -0.4*(mag-zeroPoint))
	if !emath.IsFinite(amp) {
		return 0, fmt.Errorf("%w: magnitude %v at zero point %v overflows", ErrNonFinite, mag, zeroPoint)
	}
	return amp, nil
}

// MagnitudesToAmplitudes does the element-wise conversion. zeroPoints
// is either a single value (applied to every magnitude) or one per magnitude.
func MagnitudesToAmplitudes(mags []float64, zeroPoints []float64) ([]float64, error) {
	if len(zeroPoints) != 1 && len(zeroPoints) != len(mags) {
		return nil, fmt.Errorf("%w: %d magnitudes vs %d zero points", ErrConfigMismatch, len(mags), len(zeroPoints))
	}

	amps := make([]float64, len(mags))
	for i, mag := range mags {
		zp := zeroPoints[0]
		if len(zeroPoints) > 1 {
			zp = zeroPoints[i]
		}
		amp, err := MagnitudeToAmplitude(mag, zp)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		amps[i] = amp
	}
	return amps, nil
}

// setAmplitudes fills in Amplitude for every light component, at zeroPoint.
func setAmplitudes(comps []LightComponent, zeroPoint float64) error {
	for i := range comps {
		amp, err := MagnitudeToAmplitude(comps[i].Magnitude, zeroPoint)
		if err != nil {
			return fmt.Errorf("%s component %d: %w", comps[i].Profile, i, err)
		}
		comps[i].Amplitude = amp
	}
	return nil
}
