package emath

// Affine transforms between pixel space and sky space.

import(
	"errors"
	"fmt"
	"math"

	"golang.org/x/image/math/f64"  // Will be "image/math/f64" at some point
	"gonum.org/v1/gonum/mat"
)

// Use a local type so we can hang methods off it. Row-major, 2x3:
//   [ a b c ]
//   [ d e f ]   maps (x,y) -> (a*x + b*y + c, d*x + e*y + f)
type Aff3 f64.Aff3

// Cut-n-pasted from image@0.7.0/draw/scale:matMul
func (p Aff3)Mult(q Aff3) Aff3 {
	return Aff3{
		p[3*0+0]*q[3*0+0] + p[3*0+1]*q[3*1+0],
		p[3*0+0]*q[3*0+1] + p[3*0+1]*q[3*1+1],
		p[3*0+0]*q[3*0+2] + p[3*0+1]*q[3*1+2] + p[3*0+2],
		p[3*1+0]*q[3*0+0] + p[3*1+1]*q[3*1+0],
		p[3*1+0]*q[3*0+1] + p[3*1+1]*q[3*1+1],
		p[3*1+0]*q[3*0+2] + p[3*1+1]*q[3*1+2] + p[3*1+2],
	}
}

func (m1 Aff3)Translate(tx, ty float64) Aff3 {
	return m1.Mult(Aff3{1, 0, tx,   0, 1, ty})
}

func (m Aff3)Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

func (m Aff3)Det() float64 { return m[0]*m[4] - m[1]*m[3] }

// Invert returns the inverse affine map. The linear part is inverted
// with gonum, so we get its conditioning checks for free.
func (m Aff3)Invert() (Aff3, error) {
	lin := mat.NewDense(2, 2, []float64{m[0], m[1], m[3], m[4]})

	// An ill-conditioned (but invertible) matrix still gets a usable
	// answer from gonum; only a singular one is fatal.
	var inv mat.Dense
	if err := inv.Inverse(lin); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return Aff3{}, fmt.Errorf("invert %s: %v", m, err)
		}
	}

	a, b := inv.At(0, 0), inv.At(0, 1)
	d, e := inv.At(1, 0), inv.At(1, 1)

	return Aff3{
		a, b, -(a*m[2] + b*m[5]),
		d, e, -(d*m[2] + e*m[5]),
	}, nil
}

func (m Aff3)String() string {
	return fmt.Sprintf("[%10f, %10f, %10f; %10f, %10f, %10f]", m[0], m[1], m[2], m[3], m[4], m[5])
}

// A Mat2 is a plain 2x2 matrix, row-major. It is what instruments
// call transform_pix2angle: T[i][j], with a pixel offset (dx,dy)
// becoming a sky offset of (dx*T00 + dy*T10, dx*T01 + dy*T11).
//
// That is T applied from the right (row vector times T), the transpose
// of the lenstronomy map_pix2coord convention (T times column vector).
// Diagonal transforms come out the same either way; a rotated WCS
// matrix copied from lenstronomy must be transposed first, or the
// image rotates the wrong way.
type Mat2 [4]float64

func (t Mat2)At(i, j int) float64 { return t[2*i+j] }

// Det uses gonum rather than the closed form, so NaNs and friends
// propagate the same way they do through Invert.
func (t Mat2)Det() float64 {
	return mat.Det(mat.NewDense(2, 2, t[:]))
}

func (t Mat2)IsFinite() bool {
	for _, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) { return false }
	}
	return true
}

func (t Mat2)String() string {
	return fmt.Sprintf("[[%g, %g], [%g, %g]]", t[0], t[1], t[2], t[3])
}

// Diag2 builds the usual non-rotated transform.
func Diag2(a, d float64) Mat2 { return Mat2{a, 0, 0, d} }
