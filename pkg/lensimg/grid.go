package lensimg

import(
	"fmt"
	"math"

	"github.com/abworrall/lensimg/pkg/emath"
)

// A PixelGrid ties pixel coordinates to sky coordinates. The centre
// pixel, ((NumPix-1)/2, (NumPix-1)/2), sits at sky (0,0); pixel
// offsets map to sky offsets via TransformPix2Angle.
//
// Build one per rendering (or per epoch) and use that same instance
// for every position lookup in it.
type PixelGrid struct {
	NumPix             int
	PixelScale         float64
	TransformPix2Angle emath.Mat2

	RaAtXY0            float64 // sky coords of pixel (0,0)
	DecAtXY0           float64

	pix2sky            emath.Aff3
	sky2pix            emath.Aff3
}

// DefaultTransform is the unrotated instrument orientation: RA grows to the left.
func DefaultTransform(pixelScale float64) emath.Mat2 {
	return emath.Diag2(-pixelScale, pixelScale)
}

// NewPixelGrid builds a grid centred on the sky origin.
func NewPixelGrid(numPix int, pixelScale float64, t emath.Mat2) (PixelGrid, error) {
	if numPix < 1 {
		return PixelGrid{}, fmt.Errorf("%w: num_pix=%d, need >= 1", ErrBadGrid, numPix)
	}
	if !(pixelScale > 0) || math.IsInf(pixelScale, 0) {
		return PixelGrid{}, fmt.Errorf("%w: pixel scale %v", ErrBadGrid, pixelScale)
	}
	if !t.IsFinite() {
		return PixelGrid{}, fmt.Errorf("%w: non-finite transform %s", ErrDegenerateTransform, t)
	}
	if t.Det() == 0 {
		return PixelGrid{}, fmt.Errorf("%w: det%s == 0", ErrDegenerateTransform, t)
	}

	// Shift the centre pixel to the origin, then apply the transform
	c := float64(numPix-1) / 2.0
	g := PixelGrid{
		NumPix:             numPix,
		PixelScale:         pixelScale,
		TransformPix2Angle: t,
	}
	g.pix2sky = emath.Aff3{
		t.At(0,0), t.At(1,0), 0,
		t.At(0,1), t.At(1,1), 0,
	}.Translate(-c, -c)
	g.RaAtXY0, g.DecAtXY0 = g.pix2sky[2], g.pix2sky[5]

	inv, err := g.pix2sky.Invert()
	if err != nil {
		return PixelGrid{}, fmt.Errorf("%w: %v", ErrDegenerateTransform, err)
	}
	g.sky2pix = inv

	return g, nil
}

// NewDefaultPixelGrid uses DefaultTransform.
func NewDefaultPixelGrid(numPix int, pixelScale float64) (PixelGrid, error) {
	return NewPixelGrid(numPix, pixelScale, DefaultTransform(pixelScale))
}

func (g PixelGrid)Center() float64 { return float64(g.NumPix-1) / 2.0 }

// MapCoord2Pix returns the (fractional) pixel coords of a sky position. No rounding.
func (g PixelGrid)MapCoord2Pix(ra, dec float64) (x, y float64) {
	return g.sky2pix.Apply(ra, dec)
}

func (g PixelGrid)MapPix2Coord(x, y float64) (ra, dec float64) {
	return g.pix2sky.Apply(x, y)
}

// NewImage returns a zeroed image the size of the grid.
func (g PixelGrid)NewImage() emath.FloatGrid {
	return emath.NewFloatGrid(g.NumPix, g.NumPix)
}

func (g PixelGrid)String() string {
	return fmt.Sprintf("PixelGrid[%dx%d @%g, T=%s, xy0=(%g,%g)]",
		g.NumPix, g.NumPix, g.PixelScale, g.TransformPix2Angle, g.RaAtXY0, g.DecAtXY0)
}

// PixPos is a fractional pixel position: X is the column, Y the row.
type PixPos struct {
	X, Y float64
}

// CoordinateProperties is where the deflector and lensed images land on a grid.
type CoordinateProperties struct {
	DeflectorPix PixPos
	ImagePix     []PixPos
	ImageSky     []SkyPos
}

// PointSourceCoordinates maps the deflector and every lensed image onto the grid.
func PointSourceCoordinates(ls LensSystem, g PixelGrid) CoordinateProperties {
	cp := CoordinateProperties{}

	defl := ls.DeflectorPosition()
	cp.DeflectorPix.X, cp.DeflectorPix.Y = g.MapCoord2Pix(defl.Ra, defl.Dec)

	cp.ImageSky = ls.ImagePositions()
	cp.ImagePix = make([]PixPos, len(cp.ImageSky))
	for i, pos := range cp.ImageSky {
		cp.ImagePix[i].X, cp.ImagePix[i].Y = g.MapCoord2Pix(pos.Ra, pos.Dec)
	}

	return cp
}
