package lensimg

import(
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/lensimg/pkg/emath"
)

// PSFSpec says where a PSF kernel comes from: explicit rows, a TIFF
// file, or a Gaussian of the given FWHM (in pixels).
type PSFSpec struct {
	Rows     [][]float64  `yaml:"rows"     toml:"rows"`
	File     string       `yaml:"file"     toml:"file"`
	FWHMPix  float64      `yaml:"fwhm_pix" toml:"fwhm_pix"`
	Size     int          `yaml:"size"     toml:"size"`
}

func (ps PSFSpec)Kernel(dir string) (PSFKernel, error) {
	switch {
	case len(ps.Rows) > 0:
		return NewPSFKernelFromRows(ps.Rows)

	case ps.File != "":
		filename := ps.File
		if !filepath.IsAbs(filename) {
			filename = filepath.Join(dir, filename)
		}
		return LoadPSFKernelTIFF(filename)

	case ps.FWHMPix > 0:
		size := ps.Size
		if size == 0 {
			size = 2*int(2*ps.FWHMPix) + 1 // out to ~2 FWHM each side
		}
		return GaussianKernel(ps.FWHMPix, size)
	}

	return PSFKernel{}, fmt.Errorf("%w: PSF needs one of rows, file, or fwhm_pix", ErrBadKernel)
}

// Observation is the on-disk form of a Request.
type Observation struct {
	Band           string        `yaml:"band"           toml:"band"`
	NumPix         int           `yaml:"num_pix"        toml:"num_pix"`
	PixelScale     float64       `yaml:"pixel_scale"    toml:"pixel_scale"`
	ZeroPoints     []float64     `yaml:"zero_points"    toml:"zero_points"`
	PSFs           []PSFSpec     `yaml:"psfs"           toml:"psfs"`
	Transforms     [][]float64   `yaml:"transforms"     toml:"transforms"`  // row-major 2x2, [T00,T01,T10,T11]
	AddNoise       bool          `yaml:"add_noise"      toml:"add_noise"`
	ExposureTimes  []float64     `yaml:"exposure_times" toml:"exposure_times"`
	TObs           []float64     `yaml:"t_obs"          toml:"t_obs"`

	dir            string
}

// Request builds the pipeline request, loading any PSF files. Length
// checks are left to Request.Validate.
func (o Observation)Request() (Request, error) {
	req := Request{
		Band:          o.Band,
		NumPix:        o.NumPix,
		PixelScale:    o.PixelScale,
		ZeroPoints:    o.ZeroPoints,
		AddNoise:      o.AddNoise,
		ExposureTimes: o.ExposureTimes,
		TObs:          o.TObs,
	}

	for i, ps := range o.PSFs {
		k, err := ps.Kernel(o.dir)
		if err != nil {
			return Request{}, fmt.Errorf("psf %d: %w", i, err)
		}
		req.PSFKernels = append(req.PSFKernels, k)
	}

	for i, t := range o.Transforms {
		if len(t) != 4 {
			return Request{}, fmt.Errorf("%w: transform %d has %d values, want 4", ErrDegenerateTransform, i, len(t))
		}
		req.Transforms = append(req.Transforms, emath.Mat2{t[0], t[1], t[2], t[3]})
	}

	return req, nil
}

func newObservationFromYaml(b []byte) (Observation, error) {
	o := Observation{}
	err := yaml.Unmarshal(b, &o)
	return o, err
}

func newObservationFromToml(b []byte) (Observation, error) {
	o := Observation{}
	err := toml.Unmarshal(b, &o)
	return o, err
}

// LoadObservation reads an observation from a .yaml/.yml or .toml file.
func LoadObservation(filename string) (Observation, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Observation{}, fmt.Errorf("observation read %s: %v", filename, err)
	}

	var o Observation
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		o, err = newObservationFromYaml(contents)
	case ".toml":
		o, err = newObservationFromToml(contents)
	default:
		return Observation{}, fmt.Errorf("observation %s: don't know how to parse '%s' files", filename, filepath.Ext(filename))
	}
	if err != nil {
		return Observation{}, fmt.Errorf("observation parse %s: %v", filename, err)
	}

	o.dir = filepath.Dir(filename)
	log.Debugf("Loaded observation from %s: band '%s', %d epochs", filename, o.Band, len(o.TObs))
	return o, nil
}

// LoadConfig reads a Config from a .yaml/.yml or .toml file.
func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		c := NewConfig()
		if _, err := toml.Decode(string(contents), &c); err != nil {
			return Config{}, fmt.Errorf("config parse %s: %v", filename, err)
		}
		return c, nil
	case ".yaml", ".yml":
		c, err := newConfigFromYaml(contents)
		if err != nil {
			return Config{}, fmt.Errorf("config parse %s: %v", filename, err)
		}
		return c, nil
	default:
		return Config{}, fmt.Errorf("config %s: don't know how to parse '%s' files", filename, filepath.Ext(filename))
	}
}
