package lensimg

import "errors"

// Callers match these with errors.Is; the returned errors wrap them
// with whatever context was available.
var(
	// Sequence lengths (zero points, PSF kernels, transforms, observation
	// times, exposure times) don't line up, or a required input is missing.
	ErrConfigMismatch = errors.New("lensimg: configuration mismatch")

	// The lens system reported a source type we don't know how to render.
	ErrUnsupportedSourceType = errors.New("lensimg: unsupported source type")

	// Observation times were supplied for a purely extended source.
	ErrTimeSeriesUnsupported = errors.New("lensimg: extended sources have no time variability, do not supply observation times")

	// The pixel-to-sky transform can't be inverted.
	ErrDegenerateTransform = errors.New("lensimg: degenerate pixel-to-sky transform")

	// A magnitude, zero point, exposure time or rendered value was NaN or infinite.
	ErrNonFinite = errors.New("lensimg: non-finite value")

	// PSF kernel is empty, not square, even-sized, or contains non-finite values.
	ErrBadKernel = errors.New("lensimg: bad PSF kernel")

	// Pixel count or pixel scale out of range.
	ErrBadGrid = errors.New("lensimg: bad pixel grid")
)
