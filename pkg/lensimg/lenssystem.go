package lensimg

import(
	"fmt"

	"github.com/abworrall/lensimg/pkg/emath"
)

// SourceType picks which of the three rendering regimes applies.
type SourceType int

const(
	SourceTypeUnknown SourceType = iota
	Extended
	PointSource
	PointPlusExtendedSource
)

var sourceTypeNames = map[SourceType]string{
	Extended:                "extended",
	PointSource:             "point_source",
	PointPlusExtendedSource: "point_plus_extended_source",
}

func (st SourceType)String() string {
	if name, exists := sourceTypeNames[st]; exists {
		return name
	}
	return fmt.Sprintf("SourceType(%d)", int(st))
}

// HasPointSource is true for the regimes that render lensed point images.
func (st SourceType)HasPointSource() bool {
	return st == PointSource || st == PointPlusExtendedSource
}

func (st SourceType)IsValid() bool {
	_, exists := sourceTypeNames[st]
	return exists
}

// ParseSourceType maps the tag names used in scene files. Anything
// unrecognized comes back as SourceTypeUnknown, with an error.
func ParseSourceType(s string) (SourceType, error) {
	for st, name := range sourceTypeNames {
		if name == s {
			return st, nil
		}
	}
	return SourceTypeUnknown, fmt.Errorf("%w: %q", ErrUnsupportedSourceType, s)
}

// These two let SourceType be used directly in YAML and TOML files.
func (st SourceType)MarshalText() ([]byte, error) { return []byte(st.String()), nil }
func (st *SourceType)UnmarshalText(b []byte) error {
	v, err := ParseSourceType(string(b))
	*st = v
	return err
}

// A SkyPos is an (ra, dec) offset, in the same angular units as the pixel scale.
type SkyPos struct {
	Ra  float64
	Dec float64
}

func (p SkyPos)String() string { return fmt.Sprintf("(%.5f,%.5f)", p.Ra, p.Dec) }

// A LightComponent is one parametric light profile. Magnitude is the
// total magnitude in the band; Amplitude is filled in from it, at a
// given zero point, just before rendering.
type LightComponent struct {
	Profile   string
	Magnitude float64
	Amplitude float64             `yaml:"-" toml:"-"`
	Params    map[string]float64
}

// A MassComponent is one deflector mass profile, used to ray-shoot the source light.
type MassComponent struct {
	Profile string
	Params  map[string]float64
}

// ModelParams is everything the extended-light renderer needs for one band.
type ModelParams struct {
	Lens      []MassComponent
	Source    []LightComponent
	Deflector []LightComponent
}

// Copy returns a ModelParams whose light components can be modified
// without touching the original (Params maps are shared; treat them as read-only).
func (mp ModelParams)Copy() ModelParams {
	out := ModelParams{
		Lens:      append([]MassComponent{}, mp.Lens...),
		Source:    append([]LightComponent{}, mp.Source...),
		Deflector: append([]LightComponent{}, mp.Deflector...),
	}
	return out
}

// A LensSystem is the physical description of the lens, owned by
// someone else and only ever read here. Implementations must be safe
// for concurrent reads, since epochs are rendered in parallel.
type LensSystem interface {
	SourceType() SourceType

	DeflectorPosition() SkyPos

	// ImagePositions lists the lensed point-source images, in a stable order.
	ImagePositions() []SkyPos

	// PointSourceMagnitudes returns one magnitude per lensed image
	// (same order as ImagePositions). A nil time means "no
	// variability", i.e. the static magnitudes.
	PointSourceMagnitudes(band string, time *float64) ([]float64, error)

	// ModelParams returns the light and mass model for the band, with magnitudes.
	ModelParams(band string) (ModelParams, error)
}

// RenderSelection says which extended components to include.
type RenderSelection struct {
	WithSource    bool
	WithDeflector bool
}

// An ExtendedRenderer draws unconvolved (sharp) extended light onto a
// pixel grid. Light components arrive with Amplitude already set
// (as total flux in counts/sec). It never draws point sources.
type ExtendedRenderer interface {
	RenderSharp(grid PixelGrid, model ModelParams, sel RenderSelection) (emath.FloatGrid, error)
}
