package lensmodel

import(
	"fmt"
	"math"

	"github.com/abworrall/lensimg/pkg/lensimg"
)

// A Deflection returns the deflection angle at an image plane position.
type Deflection interface {
	Alpha(ra, dec float64) (float64, float64)
}

// SIS is a singular isothermal sphere: constant deflection of ThetaE, pointing at the center.
type SIS struct {
	ThetaE              float64
	CenterRa, CenterDec float64
}

func (m SIS)Alpha(ra, dec float64) (float64, float64) {
	dx, dy := ra - m.CenterRa, dec - m.CenterDec
	r := math.Hypot(dx, dy)
	if r == 0 {
		return 0, 0
	}
	return m.ThetaE * dx / r, m.ThetaE * dy / r
}

// PointMass deflects by ThetaE^2 / r.
type PointMass struct {
	ThetaE              float64
	CenterRa, CenterDec float64
}

func (m PointMass)Alpha(ra, dec float64) (float64, float64) {
	dx, dy := ra - m.CenterRa, dec - m.CenterDec
	r2 := dx*dx + dy*dy
	if r2 == 0 {
		return 0, 0
	}
	te2 := m.ThetaE * m.ThetaE
	return te2 * dx / r2, te2 * dy / r2
}

// Shear is an external shear field, (gamma1, gamma2), about a reference point.
type Shear struct {
	Gamma1, Gamma2 float64
	RefRa, RefDec  float64
}

func (m Shear)Alpha(ra, dec float64) (float64, float64) {
	dx, dy := ra - m.RefRa, dec - m.RefDec
	return m.Gamma1*dx + m.Gamma2*dy, m.Gamma2*dx - m.Gamma1*dy
}

// NewDeflection builds a mass model from its profile name.
func NewDeflection(mc lensimg.MassComponent) (Deflection, error) {
	p := mc.Params
	switch mc.Profile {
	case "SIS":
		return SIS{ThetaE: p["theta_E"], CenterRa: p["center_x"], CenterDec: p["center_y"]}, nil
	case "POINT_MASS":
		return PointMass{ThetaE: p["theta_E"], CenterRa: p["center_x"], CenterDec: p["center_y"]}, nil
	case "SHEAR":
		return Shear{Gamma1: p["gamma1"], Gamma2: p["gamma2"], RefRa: p["ra_0"], RefDec: p["dec_0"]}, nil
	}
	return nil, fmt.Errorf("mass profile '%s' not recognized, wanted one of SIS, POINT_MASS, SHEAR", mc.Profile)
}

// A RayShooter maps image plane positions back to the source plane.
type RayShooter []Deflection

func NewRayShooter(lens []lensimg.MassComponent) (RayShooter, error) {
	rs := RayShooter{}
	for i, mc := range lens {
		d, err := NewDeflection(mc)
		if err != nil {
			return nil, fmt.Errorf("lens component %d: %v", i, err)
		}
		rs = append(rs, d)
	}
	return rs, nil
}

// Shoot applies the lens equation, beta = theta - sum(alpha(theta)).
func (rs RayShooter)Shoot(ra, dec float64) (float64, float64) {
	bRa, bDec := ra, dec
	for _, d := range rs {
		ax, ay := d.Alpha(ra, dec)
		bRa  -= ax
		bDec -= ay
	}
	return bRa, bDec
}
