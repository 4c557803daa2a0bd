package lensimg

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/tmo"

	"github.com/abworrall/lensimg/pkg/emath"
)

// FluxImage wraps a rendered image as a greyscale HDR image, so it can
// go through the hdr codecs and tone mappers. Implements hdr.Image.
type FluxImage struct {
	emath.FloatGrid
}

func NewFluxImage(g emath.FloatGrid) FluxImage { return FluxImage{g} }

// Implement image.Image
func (fi FluxImage)ColorModel() color.Model       { return hdrcolor.RGBModel }
func (fi FluxImage)Bounds() image.Rectangle       { return fi.FloatGrid.Bounds() }
func (fi FluxImage)At(x, y int) color.Color       { return fi.HDRAt(x,y) }

// Implement hdr.Image
func (fi FluxImage)HDRAt(x, y int) hdrcolor.Color {
	v := fi.FloatGrid.Get(x, y)
	if v < 0 {
		v = 0 // RGBE can't hold negative values
	}
	return hdrcolor.RGB{R:v, G:v, B:v}
}
func (fi FluxImage)Size() int                     { return fi.Dx() * fi.Dy() }

// WriteToHDR writes the image as a Radiance RGBE (.hdr) file, keeping the linear flux values.
func (fi FluxImage)WriteToHDR(filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("FluxImage.WriteToHDR, open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		err := rgbe.Encode(writer, fi)
		if err != nil {
			log.Errorf("FluxImage.WriteToHDR, encoding RGBE file: %v", err)
		}
		return err
	}
}

var(
	Tonemappers = []string{"drago03", "durand", "icam06", "linear", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

// SetupTonemapper picks a tone mapping operator by name. Lensed images
// are mostly sky, with a few very bright point sources; the settings
// keep the faint arcs from getting crushed.
func SetupTonemapper(name string, img hdr.Image) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(img)
		op.Bias = 0.7            // lower bias lifts the faint end
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(img), nil

	case "icam06":
		op := tmo.NewDefaultICam06(img)
		op.MaxClipping = 0.9999  // let the point sources saturate, not the arcs
		return op, nil

	case "linear", "":
		return tmo.NewLinear(img), nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(img)
		op.Light = 0.005
		return op, nil
	}

	return nil, fmt.Errorf("%w: tonemapper %q not recognized, wanted one of %s", ErrConfigMismatch, name, ListTonemappers())
}

// WritePreviewPNG squashes the flux down into 8 bits with the named
// tone mapper, for eyeballing.
func (fi FluxImage)WritePreviewPNG(filename, tonemapper string) error {
	op, err := SetupTonemapper(tonemapper, fi)
	if err != nil {
		return err
	}
	return WritePNG(op.Perform(), filename)
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// WriteLensImages writes one .hdr per image (prefix-000.hdr, ...), and a
// PNG preview of each through the named tone mapper (none, if
// tonemapper is empty). Returns the filenames written.
func WriteLensImages(li LensImages, prefix, tonemapper string) ([]string, error) {
	files := []string{}
	for i, img := range li.Images {
		fi := NewFluxImage(img)

		hdrFile := fmt.Sprintf("%s-%03d.hdr", prefix, i)
		if err := fi.WriteToHDR(hdrFile); err != nil {
			return files, err
		}
		files = append(files, hdrFile)

		if tonemapper != "" {
			pngFile := fmt.Sprintf("%s-%03d.png", prefix, i)
			if err := fi.WritePreviewPNG(pngFile, tonemapper); err != nil {
				return files, fmt.Errorf("preview %s: %w", pngFile, err)
			}
			files = append(files, pngFile)
		}
	}
	return files, nil
}
