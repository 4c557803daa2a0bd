package fft

// 2-D FFTs over FloatGrids, for convolving images with PSF kernels.
//
// gonum only ships 1-D transforms (dsp/fourier, a port of FFTPACK),
// so the 2-D transform is done the usual way: transform every row,
// then every column. Everything stays in pure Go; no C toolchain or
// libfftw3 is needed.

import(
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/abworrall/lensimg/pkg/emath"
)

// A Plan2D holds the 1-D transforms for a w x h complex grid. It is
// not safe for concurrent use (the scratch buffers are shared); make
// one per goroutine.
type Plan2D struct {
	w, h    int
	rowFFT  *fourier.CmplxFFT
	colFFT  *fourier.CmplxFFT
	rowBuf  []complex128
	colBuf  []complex128
	colOut  []complex128
}

func NewPlan2D(w, h int) *Plan2D {
	return &Plan2D{
		w:      w,
		h:      h,
		rowFFT: fourier.NewCmplxFFT(w),
		colFFT: fourier.NewCmplxFFT(h),
		rowBuf: make([]complex128, w),
		colBuf: make([]complex128, h),
		colOut: make([]complex128, h),
	}
}

// Forward transforms data (row-major, w*h) in place.
func (p *Plan2D) Forward(data []complex128) {
	p.apply(data, false)
}

// Inverse transforms data in place, and normalizes; Inverse(Forward(x)) == x.
func (p *Plan2D) Inverse(data []complex128) {
	p.apply(data, true)

	// FFTPACK's backward transform is unnormalized
	n := complex(float64(p.w*p.h), 0)
	for i := range data {
		data[i] /= n
	}
}

func (p *Plan2D) apply(data []complex128, inverse bool) {
	for y:=0; y<p.h; y++ {
		row := data[y*p.w : (y+1)*p.w]
		copy(p.rowBuf, row)
		if inverse {
			p.rowFFT.Sequence(row, p.rowBuf)
		} else {
			p.rowFFT.Coefficients(row, p.rowBuf)
		}
	}

	for x:=0; x<p.w; x++ {
		for y:=0; y<p.h; y++ {
			p.colBuf[y] = data[y*p.w + x]
		}
		if inverse {
			p.colFFT.Sequence(p.colOut, p.colBuf)
		} else {
			p.colFFT.Coefficients(p.colOut, p.colBuf)
		}
		for y:=0; y<p.h; y++ {
			data[y*p.w + x] = p.colOut[y]
		}
	}
}

// Convolve returns img convolved with kernel, cropped back to the
// shape of img ("same" mode, kernel centre at (size-1)/2). Pixels
// outside img are treated as zero. The kernel is used as-is; no
// normalization is applied.
func Convolve(img, kernel emath.FloatGrid) (emath.FloatGrid, error) {
	iw, ih := img.Dx(), img.Dy()
	kw, kh := kernel.Dx(), kernel.Dy()
	if iw == 0 || ih == 0 || kw == 0 || kh == 0 {
		return emath.FloatGrid{}, fmt.Errorf("fft convolve: empty input (%dx%d * %dx%d)", iw, ih, kw, kh)
	}

	// Pad to the full linear convolution size, so nothing wraps around
	w, h := iw+kw-1, ih+kh-1
	a := make([]complex128, w*h)
	b := make([]complex128, w*h)

	for y:=0; y<ih; y++ {
		for x:=0; x<iw; x++ {
			a[y*w + x] = complex(img.Get(x, y), 0)
		}
	}
	for y:=0; y<kh; y++ {
		for x:=0; x<kw; x++ {
			b[y*w + x] = complex(kernel.Get(x, y), 0)
		}
	}

	p := NewPlan2D(w, h)
	p.Forward(a)
	p.Forward(b)
	for i := range a {
		a[i] *= b[i]
	}
	p.Inverse(a)

	offX, offY := (kw-1)/2, (kh-1)/2
	out := emath.NewFloatGrid(iw, ih)
	for y:=0; y<ih; y++ {
		for x:=0; x<iw; x++ {
			out.Set(x, y, real(a[(y+offY)*w + x+offX]))
		}
	}

	return out, nil
}
