package lensmodel

import(
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/abworrall/lensimg/pkg/emath"
)

// A LightCurve is the intrinsic variability of the point source, as
// magnitude offsets sampled at a set of times (days). Between samples
// it is linearly interpolated; outside them it holds the end values.
type LightCurve struct {
	Times      []float64  `yaml:"times"       toml:"times"`
	MagOffsets []float64  `yaml:"mag_offsets" toml:"mag_offsets"`
}

func (lc LightCurve)String() string {
	if len(lc.Times) == 0 {
		return "LightCurve[]"
	}
	return fmt.Sprintf("LightCurve[%d samples, t=%.2f..%.2f]", len(lc.Times), lc.Times[0], lc.Times[len(lc.Times)-1])
}

func (lc LightCurve)Validate() error {
	if len(lc.Times) == 0 {
		return fmt.Errorf("light curve has no samples")
	}
	if len(lc.Times) != len(lc.MagOffsets) {
		return fmt.Errorf("light curve has %d times but %d magnitude offsets", len(lc.Times), len(lc.MagOffsets))
	}
	if !emath.AllFinite(lc.Times) || !emath.AllFinite(lc.MagOffsets) {
		return fmt.Errorf("light curve has non-finite values")
	}
	for i:=1; i<len(lc.Times); i++ {
		if lc.Times[i] <= lc.Times[i-1] {
			return fmt.Errorf("light curve times must strictly increase (sample %d: %g after %g)", i, lc.Times[i], lc.Times[i-1])
		}
	}
	return nil
}

// At returns the magnitude offset at time t.
func (lc LightCurve)At(t float64) (float64, error) {
	if err := lc.Validate(); err != nil {
		return 0, err
	}
	n := len(lc.Times)
	switch {
	case t <= lc.Times[0]:   return lc.MagOffsets[0], nil
	case t >= lc.Times[n-1]: return lc.MagOffsets[n-1], nil
	}

	pl := interp.PiecewiseLinear{}
	if err := pl.Fit(lc.Times, lc.MagOffsets); err != nil {
		return 0, fmt.Errorf("light curve fit: %v", err)
	}
	return pl.Predict(t), nil
}
