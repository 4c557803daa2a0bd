package lensmodel

import(
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/abworrall/lensimg/pkg/emath"
	"github.com/abworrall/lensimg/pkg/lensimg"
)

// Renderer draws Sersic light onto a pixel grid: deflector light as
// is, source light ray-shot back through the lens. Each pixel holds
// the flux that lands in it (surface brightness times pixel area),
// sampled on a Supersample x Supersample sub-grid.
//
// Renderer has no mutable state, so one can be shared across epochs.
type Renderer struct {
	Supersample int
}

func NewRenderer() Renderer { return Renderer{Supersample: 1} }

// NewRendererFromConfig takes the supersampling factor from the config.
func NewRendererFromConfig(c lensimg.Config) Renderer {
	r := NewRenderer()
	if c.Supersample > 1 {
		r.Supersample = c.Supersample
	}
	return r
}

type lightProfile interface {
	SurfaceBrightness(ra, dec float64) float64
}

func newLightProfiles(comps []lensimg.LightComponent) ([]lightProfile, error) {
	out := []lightProfile{}
	for i, lc := range comps {
		switch lc.Profile {
		case "SERSIC", "SERSIC_ELLIPSE":
			s, err := NewSersic(lc.Amplitude, lc.Params)
			if err != nil {
				return nil, fmt.Errorf("light component %d: %v", i, err)
			}
			out = append(out, s)
		default:
			return nil, fmt.Errorf("light component %d: profile '%s' not recognized, wanted SERSIC or SERSIC_ELLIPSE", i, lc.Profile)
		}
	}
	return out, nil
}

// RenderSharp implements lensimg.ExtendedRenderer.
func (r Renderer)RenderSharp(g lensimg.PixelGrid, model lensimg.ModelParams, sel lensimg.RenderSelection) (emath.FloatGrid, error) {
	img := g.NewImage()

	var src, defl []lightProfile
	var rays RayShooter
	var err error

	if sel.WithSource {
		if src, err = newLightProfiles(model.Source); err != nil {
			return img, fmt.Errorf("source: %v", err)
		}
		if rays, err = NewRayShooter(model.Lens); err != nil {
			return img, err
		}
	}
	if sel.WithDeflector {
		if defl, err = newLightProfiles(model.Deflector); err != nil {
			return img, fmt.Errorf("deflector: %v", err)
		}
	}
	if len(src) == 0 && len(defl) == 0 {
		return img, nil
	}

	ss := r.Supersample
	if ss < 1 {
		ss = 1
	}
	pixArea := math.Abs(g.TransformPix2Angle.Det())
	subWeight := pixArea / float64(ss*ss)

	log.Debugf("RenderSharp: %d source, %d deflector components, %d lens components, %dx supersampling",
		len(src), len(defl), len(rays), ss)

	for y:=0; y<g.NumPix; y++ {
		for x:=0; x<g.NumPix; x++ {
			sum := 0.0
			for sy:=0; sy<ss; sy++ {
				for sx:=0; sx<ss; sx++ {
					// sub-pixel centers, symmetric about the pixel center
					px := float64(x) + (float64(sx)+0.5)/float64(ss) - 0.5
					py := float64(y) + (float64(sy)+0.5)/float64(ss) - 0.5
					ra, dec := g.MapPix2Coord(px, py)

					for _, lp := range defl {
						sum += lp.SurfaceBrightness(ra, dec)
					}
					if len(src) > 0 {
						bRa, bDec := rays.Shoot(ra, dec)
						for _, lp := range src {
							sum += lp.SurfaceBrightness(bRa, bDec)
						}
					}
				}
			}
			img.Set(x, y, sum*subWeight)
		}
	}

	return img, nil
}
