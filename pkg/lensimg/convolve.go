package lensimg

import(
	"fmt"

	"github.com/abworrall/lensimg/pkg/emath"
	"github.com/abworrall/lensimg/pkg/fft"
)

// A ConvolveFunc convolves an image with a PSF kernel, returning an
// image of the same shape ("same" mode: the kernel's centre pixel
// lines up with the output pixel; outside the image counts as zero).
// The kernel is assumed to be normalized already.
type ConvolveFunc func(img emath.FloatGrid, psf PSFKernel) (emath.FloatGrid, error)

// Above this many multiply-adds per image, the FFT wins.
const autoFFTThreshold = 1 << 20

// ConvolveDirect is the straightforward sum; exact, and quick for small kernels.
func ConvolveDirect(img emath.FloatGrid, psf PSFKernel) (emath.FloatGrid, error) {
	if err := psf.Validate(); err != nil {
		return emath.FloatGrid{}, err
	}

	w, h := img.Dx(), img.Dy()
	half := psf.Half()
	size := psf.Size()
	out := img.NewFromThis()

	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			v := img.Get(x, y)
			if v == 0 {
				continue
			}
			// Scatter this pixel through the kernel
			for ky:=0; ky<size; ky++ {
				oy := y + ky - half
				if oy < 0 || oy >= h { continue }
				for kx:=0; kx<size; kx++ {
					ox := x + kx - half
					if ox < 0 || ox >= w { continue }
					out.Inc(ox, oy, v * psf.Get(kx, ky))
				}
			}
		}
	}

	return out, nil
}

// ConvolveFFT goes via gonum's FFTs; it differs from ConvolveDirect only by rounding.
func ConvolveFFT(img emath.FloatGrid, psf PSFKernel) (emath.FloatGrid, error) {
	if err := psf.Validate(); err != nil {
		return emath.FloatGrid{}, err
	}
	out, err := fft.Convolve(img, psf.FloatGrid)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("convolve %s: %v", psf, err)
	}
	return out, nil
}

// ConvolveAuto picks whichever of the two should be faster.
func ConvolveAuto(img emath.FloatGrid, psf PSFKernel) (emath.FloatGrid, error) {
	if img.Dx() * img.Dy() * psf.Dx() * psf.Dy() > autoFFTThreshold {
		return ConvolveFFT(img, psf)
	}
	return ConvolveDirect(img, psf)
}
