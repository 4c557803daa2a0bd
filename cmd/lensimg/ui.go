package main

import(
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/abworrall/lensimg/pkg/lensimg"
)

var(
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

// printSummary lists what got rendered and where it went.
func printSummary(w io.Writer, runID, name string, li lensimg.LensImages, files []string) {
	fmt.Fprintln(w, styleTitle.Render(name))
	fmt.Fprintln(w, styleKey.Render("run")+" "+runID)
	for i, img := range li.Images {
		key := "image"
		if li.IsTimeSeries() {
			key = fmt.Sprintf("t=%.3f", li.Epochs[i])
		}
		fmt.Fprintln(w, styleKey.Render(key)+" "+img.Stats())
	}
	for _, f := range files {
		fmt.Fprintln(w, "  "+styleDim.Render("→")+" "+f)
	}
	fmt.Fprintln(w, styleSuccess.Render("✓")+fmt.Sprintf(" wrote %d files", len(files)))
}
