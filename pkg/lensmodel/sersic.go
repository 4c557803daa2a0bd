package lensmodel

import(
	"fmt"
	"math"
)

// Sersic is an elliptical Sersic surface brightness profile,
//   I(R) = Ie exp(-bn ((R/Re)^(1/n) - 1))
// with the elliptical radius R = sqrt(q x'^2 + y'^2/q), where (x',y')
// are offsets rotated by Phi into the major axis frame. That radius
// keeps the enclosed area independent of q, so the total flux only
// depends on Ie, Re and n.
type Sersic struct {
	Amp       float64  // total flux
	Re        float64  // half-light radius
	N         float64
	Q         float64  // axis ratio, 0 < q <= 1
	Phi       float64  // position angle, radians
	CenterRa  float64
	CenterDec float64

	bn        float64
	ie        float64
	cosPhi    float64
	sinPhi    float64
}

// sersicBn is the Ciotti & Bertin (1999) expansion; good to ~1e-6 for n > 0.36.
func sersicBn(n float64) float64 {
	return 2*n - 1.0/3 + 4/(405*n) + 46/(25515*n*n) + 131/(1148175*n*n*n)
}

// sersicTotalFluxFactor is L/Ie for a unit-Re profile.
func sersicTotalFluxFactor(n, bn float64) float64 {
	return 2 * math.Pi * n * math.Exp(bn) * math.Gamma(2*n) / math.Pow(bn, 2*n)
}

// NewSersic builds the profile from a light component's params.
// Recognized: R_sersic, n_sersic (required), q, phi, center_x, center_y.
func NewSersic(amp float64, params map[string]float64) (Sersic, error) {
	s := Sersic{
		Amp:       amp,
		Re:        params["R_sersic"],
		N:         params["n_sersic"],
		Q:         1,
		Phi:       params["phi"],
		CenterRa:  params["center_x"],
		CenterDec: params["center_y"],
	}
	if q, exists := params["q"]; exists {
		s.Q = q
	}

	if !(s.Re > 0) {
		return s, fmt.Errorf("sersic: R_sersic must be > 0, got %v", s.Re)
	}
	if !(s.N >= 0.36) || s.N > 10 {
		return s, fmt.Errorf("sersic: n_sersic must be in [0.36,10], got %v", s.N)
	}
	if !(s.Q > 0) || s.Q > 1 {
		return s, fmt.Errorf("sersic: q must be in (0,1], got %v", s.Q)
	}

	s.bn = sersicBn(s.N)
	s.ie = s.Amp / (s.Re * s.Re * sersicTotalFluxFactor(s.N, s.bn))
	s.cosPhi, s.sinPhi = math.Cos(s.Phi), math.Sin(s.Phi)

	return s, nil
}

func (s Sersic)String() string {
	return fmt.Sprintf("Sersic[amp=%.4g Re=%.3f n=%.2f q=%.2f phi=%.2f @(%.3f,%.3f)]",
		s.Amp, s.Re, s.N, s.Q, s.Phi, s.CenterRa, s.CenterDec)
}

// SurfaceBrightness is the flux per unit solid angle at (ra, dec).
func (s Sersic)SurfaceBrightness(ra, dec float64) float64 {
	dx, dy := ra - s.CenterRa, dec - s.CenterDec
	xp :=  dx*s.cosPhi + dy*s.sinPhi
	yp := -dx*s.sinPhi + dy*s.cosPhi
	r := math.Sqrt(s.Q*xp*xp + yp*yp/s.Q)

	return s.ie * math.Exp(-s.bn * (math.Pow(r/s.Re, 1/s.N) - 1))
}
