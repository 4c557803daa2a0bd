package lensmodel

import(
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/lensimg/pkg/emath"
	"github.com/abworrall/lensimg/pkg/lensimg"
)

// LensedImage is one image of the point source.
type LensedImage struct {
	Ra            float64  `yaml:"ra"            toml:"ra"`
	Dec           float64  `yaml:"dec"           toml:"dec"`
	Magnification float64  `yaml:"magnification" toml:"magnification"`  // signed; 0 means 1
	TimeDelay     float64  `yaml:"time_delay"    toml:"time_delay"`     // days, relative to the source
}

func (li LensedImage)mu() float64 {
	if li.Magnification == 0 {
		return 1
	}
	return li.Magnification
}

// Band holds everything that depends on the filter.
type Band struct {
	// The unlensed point source magnitude; each image gets its magnification on top.
	PointSourceMagnitude float64                  `yaml:"point_source_magnitude" toml:"point_source_magnitude"`
	// If present, these are used as-is instead (one per lensed image).
	ImageMagnitudes      []float64                `yaml:"image_magnitudes"       toml:"image_magnitudes"`
	LightCurve           *LightCurve              `yaml:"light_curve"            toml:"light_curve"`

	Deflector            []lensimg.LightComponent `yaml:"deflector_light"        toml:"deflector_light"`
	Source               []lensimg.LightComponent `yaml:"source_light"           toml:"source_light"`
}

// A Scene is a lens system read from a file. It implements
// lensimg.LensSystem; nothing modifies it after loading, so it is safe
// to read from many epochs at once.
type Scene struct {
	Name       string                   `yaml:"name"        toml:"name"`
	Type       string                   `yaml:"source_type" toml:"source_type"`
	Deflector  lensimg.SkyPos           `yaml:"deflector"   toml:"deflector"`
	Images     []LensedImage            `yaml:"images"      toml:"images"`
	Lens       []lensimg.MassComponent  `yaml:"lens"        toml:"lens"`
	Bands      map[string]Band          `yaml:"bands"       toml:"bands"`
}

func (s Scene)String() string {
	return fmt.Sprintf("Scene[%s %s, deflector %s, %d images, %d lens components, %d bands]",
		s.Name, s.Type, s.Deflector, len(s.Images), len(s.Lens), len(s.Bands))
}

// SourceType returns SourceTypeUnknown for a name it doesn't know; the pipeline rejects those.
func (s Scene)SourceType() lensimg.SourceType {
	st, err := lensimg.ParseSourceType(s.Type)
	if err != nil {
		return lensimg.SourceTypeUnknown
	}
	return st
}

func (s Scene)DeflectorPosition() lensimg.SkyPos { return s.Deflector }

func (s Scene)ImagePositions() []lensimg.SkyPos {
	out := make([]lensimg.SkyPos, len(s.Images))
	for i, li := range s.Images {
		out[i] = lensimg.SkyPos{Ra: li.Ra, Dec: li.Dec}
	}
	return out
}

func (s Scene)band(name string) (Band, error) {
	b, exists := s.Bands[name]
	if !exists {
		return Band{}, fmt.Errorf("scene '%s' has no band '%s'", s.Name, name)
	}
	return b, nil
}

// PointSourceMagnitudes returns one magnitude per lensed image. With a
// time and a light curve, each image samples the curve at t minus its
// time delay.
func (s Scene)PointSourceMagnitudes(bandName string, t *float64) ([]float64, error) {
	b, err := s.band(bandName)
	if err != nil {
		return nil, err
	}

	mags := make([]float64, len(s.Images))
	if len(b.ImageMagnitudes) > 0 {
		if len(b.ImageMagnitudes) != len(s.Images) {
			return nil, fmt.Errorf("%w: band '%s' has %d image magnitudes for %d images",
				lensimg.ErrConfigMismatch, bandName, len(b.ImageMagnitudes), len(s.Images))
		}
		copy(mags, b.ImageMagnitudes)
	} else {
		for i, li := range s.Images {
			mags[i] = b.PointSourceMagnitude - 2.5*math.Log10(math.Abs(li.mu()))
		}
	}

	if t != nil && b.LightCurve != nil {
		for i, li := range s.Images {
			dm, err := b.LightCurve.At(*t - li.TimeDelay)
			if err != nil {
				return nil, fmt.Errorf("band '%s', image %d: %v", bandName, i, err)
			}
			mags[i] += dm
		}
	}

	if !emath.AllFinite(mags) {
		return nil, fmt.Errorf("%w: band '%s' magnitudes %v", lensimg.ErrNonFinite, bandName, mags)
	}
	return mags, nil
}

// ModelParams hands out copies of the band's light components.
func (s Scene)ModelParams(bandName string) (lensimg.ModelParams, error) {
	b, err := s.band(bandName)
	if err != nil {
		return lensimg.ModelParams{}, err
	}
	mp := lensimg.ModelParams{
		Lens:      s.Lens,
		Source:    b.Source,
		Deflector: b.Deflector,
	}
	return mp.Copy(), nil
}

// Validate checks the things that would otherwise only fail halfway through rendering.
func (s Scene)Validate() error {
	if len(s.Bands) == 0 {
		return fmt.Errorf("scene '%s' has no bands", s.Name)
	}
	for name, b := range s.Bands {
		if b.LightCurve != nil {
			if err := b.LightCurve.Validate(); err != nil {
				return fmt.Errorf("band '%s': %v", name, err)
			}
		}
	}
	if _, err := NewRayShooter(s.Lens); err != nil {
		return err
	}
	return nil
}

func newSceneFromYaml(b []byte) (Scene, error) {
	s := Scene{}
	err := yaml.Unmarshal(b, &s)
	return s, err
}

func newSceneFromToml(b []byte) (Scene, error) {
	s := Scene{}
	err := toml.Unmarshal(b, &s)
	return s, err
}

// LoadScene reads a scene from a .yaml/.yml or .toml file.
func LoadScene(filename string) (Scene, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Scene{}, fmt.Errorf("scene read %s: %v", filename, err)
	}

	var s Scene
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		s, err = newSceneFromYaml(contents)
	case ".toml":
		s, err = newSceneFromToml(contents)
	default:
		return Scene{}, fmt.Errorf("scene %s: don't know how to parse '%s' files", filename, filepath.Ext(filename))
	}
	if err != nil {
		return Scene{}, fmt.Errorf("scene parse %s: %v", filename, err)
	}

	if err := s.Validate(); err != nil {
		return Scene{}, fmt.Errorf("scene %s: %v", filename, err)
	}

	log.Debugf("Loaded %s from %s", s, filename)
	return s, nil
}
