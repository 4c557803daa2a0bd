package lensimg

import(
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/abworrall/lensimg/pkg/emath"
)

// A Compositor renders lensed point sources plus convolved extended
// light, one epoch at a time.
type Compositor struct {
	Config
	Renderer  ExtendedRenderer
	Convolve  ConvolveFunc
}

// EpochParts are the pieces of one epoch's image, before they get summed.
type EpochParts struct {
	PointImages   []emath.FloatGrid  // one per lensed image, PSF already applied
	Sharp         emath.FloatGrid    // unconvolved extended light
	Convolved     emath.FloatGrid    // Sharp, with this epoch's PSF
}

// RenderEpochParts renders the pieces of a single epoch; nothing is shared with other epochs.
func (c Compositor)RenderEpochParts(ls LensSystem, band string, numPix int, pixelScale float64, e Epoch) (EpochParts, error) {
	parts := EpochParts{}

	g, err := NewPixelGrid(numPix, pixelScale, e.Transform)
	if err != nil {
		return parts, err
	}

	// Lensed images at this time, at this epoch's zero point, through this epoch's PSF
	parts.PointImages, err = PointSourceImagesAtTime(ls, band, g, e.PSF, e.ZeroPoint, e.Time)
	if err != nil {
		return parts, err
	}

	// The extended light, on the same grid, convolved with the same PSF
	sel := RenderSelection{WithSource: true, WithDeflector: true}
	parts.Sharp, err = SharpImage(ls, c.Renderer, band, e.ZeroPoint, g, sel)
	if err != nil {
		return parts, err
	}
	parts.Convolved, err = c.Convolve(parts.Sharp, e.PSF)
	if err != nil {
		return parts, fmt.Errorf("convolve sharp image: %w", err)
	}

	return parts, nil
}

// RenderEpoch returns the composite image for one epoch: point sources plus convolved extended light.
func (c Compositor)RenderEpoch(ls LensSystem, band string, numPix int, pixelScale float64, e Epoch) (emath.FloatGrid, error) {
	parts, err := c.RenderEpochParts(ls, band, numPix, pixelScale, e)
	if err != nil {
		return emath.FloatGrid{}, fmt.Errorf("%s: %w", e, err)
	}

	composite := *parts.Convolved.Copy()
	for i, img := range parts.PointImages {
		if err := composite.AddInPlace(img); err != nil {
			return emath.FloatGrid{}, fmt.Errorf("%s, lensed image %d: %v", e, i, err)
		}
	}

	if c.DumpGrids {
		c.maybeDumpGrid(&parts.Sharp, fmt.Sprintf("epoch %d sharp", e.Index), fmt.Sprintf("epoch%03d-sharp", e.Index))
		c.maybeDumpGrid(&composite, fmt.Sprintf("epoch %d t=%.2f", e.Index, e.Time), fmt.Sprintf("epoch%03d-composite", e.Index))
	}

	return composite, nil
}

type epochJob struct {
	// Inputs for the job
	Pos    int    // position in the caller's slice; Epoch.Index is only a label
	Epoch  Epoch

	// Output
	Image  emath.FloatGrid
	Err    error
}

// RenderEpochs renders every epoch using a pool of goroutines, and
// returns the images in the same order as the epochs came in. If any
// epoch fails, the error for the earliest failing epoch is returned
// and no images.
func (c Compositor)RenderEpochs(ls LensSystem, band string, numPix int, pixelScale float64, epochs []Epoch) ([]emath.FloatGrid, error) {
	var wg sync.WaitGroup
	jobsChan    := make(chan epochJob, len(epochs))
	resultsChan := make(chan epochJob, len(epochs))

	nWorkers := c.NumWorkers()
	if nWorkers > len(epochs) { nWorkers = len(epochs) }
	log.Debugf("Rendering %d epochs, band '%s', %d workers", len(epochs), band, nWorkers)

	// Kick off worker pool
	for i:=0; i<nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				job.Image, job.Err = c.RenderEpoch(ls, band, numPix, pixelScale, job.Epoch)
				resultsChan<- job
			}
		}()
	}

	// Feed in jobs
	for i, e := range epochs {
		jobsChan<- epochJob{Pos: i, Epoch: e}
	}

	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	// Put them back in epoch order
	images := make([]emath.FloatGrid, len(epochs))
	errs := make([]error, len(epochs))
	for result := range resultsChan {
		images[result.Pos] = result.Image
		errs[result.Pos] = result.Err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return images, nil
}

// PointSourceImagesWithVariability renders only the lensed point
// sources for each epoch, summed over the lensed images: one image per epoch.
func PointSourceImagesWithVariability(ls LensSystem, band string, numPix int, pixelScale float64, epochs []Epoch) ([]emath.FloatGrid, error) {
	out := make([]emath.FloatGrid, len(epochs))
	for i, e := range epochs {
		g, err := NewPixelGrid(numPix, pixelScale, e.Transform)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e, err)
		}
		imgs, err := PointSourceImagesAtTime(ls, band, g, e.PSF, e.ZeroPoint, e.Time)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e, err)
		}
		if len(imgs) == 0 {
			out[i] = g.NewImage()
			continue
		}
		if out[i], err = emath.SumGrids(imgs); err != nil {
			return nil, fmt.Errorf("%s: %v", e, err)
		}
	}
	return out, nil
}
