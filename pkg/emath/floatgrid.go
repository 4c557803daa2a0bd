package emath

import(
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
	"gonum.org/v1/gonum/floats"
)

// A FloatGrid is a grid of floats, with some operations. Pixel (x,y)
// is column x, row y; rows are stored contiguously.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// NewFloatGridFromRows copies a row-major [][]float64 (rows must all be the same length).
func NewFloatGridFromRows(rows [][]float64) (FloatGrid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return FloatGrid{}, fmt.Errorf("empty grid")
	}
	fg := NewFloatGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != fg.stride {
			return FloatGrid{}, fmt.Errorf("row %d has %d values, want %d", y, len(row), fg.stride)
		}
		copy(fg.values[y*fg.stride:], row)
	}
	return fg, nil
}

func (g1 *FloatGrid)NewFromThis() FloatGrid  { return NewFloatGrid(g1.Dx(), g1.Dy()) }
func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.stride*y + x] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.stride*y + x] }
func (fg *FloatGrid)Inc(x, y int, v float64) { fg.values[fg.stride*y + x] += v }
func (fg *FloatGrid)Dx() int                 { return fg.stride }
func (fg *FloatGrid)Dy() int {
	if fg.stride == 0 { return 0 }
	return len(fg.values) / fg.stride
}
func (fg *FloatGrid)Bounds() image.Rectangle { return image.Rect(0, 0, fg.Dx(), fg.Dy()) }
func (fg *FloatGrid)InBounds(x, y int) bool  { return x >= 0 && y >= 0 && x < fg.Dx() && y < fg.Dy() }

// Values exposes the backing slice, row-major. Mutating it mutates the grid.
func (fg *FloatGrid)Values() []float64 { return fg.values }

func (g1 *FloatGrid)Copy() *FloatGrid {
	g2 := FloatGrid{stride: g1.stride, values:make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return &g2
}

func (g1 *FloatGrid)SameShape(g2 FloatGrid) bool {
	return g1.Dx() == g2.Dx() && g1.Dy() == g2.Dy()
}

// AddInPlace accumulates g2 into g1.
func (g1 *FloatGrid)AddInPlace(g2 FloatGrid) error {
	if !g1.SameShape(g2) {
		return fmt.Errorf("add %dx%d to %dx%d: shape mismatch", g2.Dx(), g2.Dy(), g1.Dx(), g1.Dy())
	}
	floats.Add(g1.values, g2.values)
	return nil
}

func (g1 *FloatGrid)Scale(f float64) { floats.Scale(f, g1.values) }

func (fg *FloatGrid)Sum() float64 { return floats.Sum(fg.values) }
func (fg *FloatGrid)Min() float64 { return floats.Min(fg.values) }
func (fg *FloatGrid)Max() float64 { return floats.Max(fg.values) }

// FloorAt clamps every value below min up to min; returns how many were changed.
func (fg *FloatGrid)FloorAt(min float64) int {
	n := 0
	for i:=0; i<len(fg.values); i++ {
		if fg.values[i] < min {
			fg.values[i] = min
			n++
		}
	}
	return n
}

func (fg *FloatGrid)IsFinite() bool {
	return AllFinite(fg.values)
}

// SumGrids adds up a set of same-shaped grids into a new one.
func SumGrids(grids []FloatGrid) (FloatGrid, error) {
	if len(grids) == 0 {
		return FloatGrid{}, fmt.Errorf("sum of zero grids")
	}
	out := grids[0].NewFromThis()
	for i, g := range grids {
		if err := out.AddInPlace(g); err != nil {
			return FloatGrid{}, fmt.Errorf("grid %d: %v", i, err)
		}
	}
	return out, nil
}

func (fg *FloatGrid)Stats() string {
	if len(fg.values) == 0 {
		return "fg[0x0]"
	}
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}, sum %f]", fg.Dx(), fg.Dy(), fg.Min(), fg.Max(), fg.Sum())
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision
func (fg *FloatGrid)ToImg(title, filename string) error {
	min, max := fg.Min(), fg.Max()
	if max == min { max = min + 1 } // flat grid, avoid div by zero

	img := image.NewRGBA64(fg.Bounds())
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			lum := fg.Get(x,y)
			gray := GammaExpand_F64 ((lum - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1,0.3,0.3)
	dc.DrawString(title, 4, 12)
	return dc.SavePNG(filename)
}
