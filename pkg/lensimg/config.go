package lensimg

import(
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v2"
)

// Config holds the knobs that change how images get made, but not what is in them.
type Config struct {
	Verbosity     int

	Convolver     string  // "direct", "fft", or "auto"
	Workers       int     // how many epochs to render at once; 0 means one per CPU
	Seed          uint64  // seeds the Poisson noise; each image gets its own stream off this
	Supersample   int     // sub-pixel samples per axis when rendering extended light

	DumpGrids     bool    // write greyscale PNGs of intermediate images
	DumpPrefix    string
}

func NewConfig() Config {
	return Config{
		Convolver:   "auto",
		Supersample: 1,
		DumpPrefix:  "dump",
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Errorf("Can't marshal config yaml: %v", err)
		return ""
	}
	return string(b)
}

func (c Config)GetConvolver() (ConvolveFunc, error) {
	switch c.Convolver {
	case "direct":     return ConvolveDirect, nil
	case "fft":        return ConvolveFFT, nil
	case "auto", "":   return ConvolveAuto, nil
	default:
		return nil, fmt.Errorf("%w: no convolver named '%s'", ErrConfigMismatch, c.Convolver)
	}
}

func (c Config)NumWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// maybeDumpGrid writes a debug PNG if DumpGrids is set; failures are only logged.
func (c Config)maybeDumpGrid(g interface{ ToImg(string, string) error }, title, name string) {
	if !c.DumpGrids {
		return
	}
	filename := fmt.Sprintf("%s-%s.png", c.DumpPrefix, name)
	if err := g.ToImg(title, filename); err != nil {
		log.Warnf("dump grid %s: %v", filename, err)
	}
}
