package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// ProfilePlot draws values against bin index. With logScale the plot shows
// log10 of the values; non-positive values are drawn at the smallest
// positive one.
func ProfilePlot(values []float64, caption string, width, height int, logScale bool) string {
	if len(values) == 0 {
		return Subtle.Render("(no data)")
	}
	data := values
	if logScale {
		floor := math.Inf(1)
		for _, v := range values {
			if v > 0 {
				floor = math.Min(floor, v)
			}
		}
		if math.IsInf(floor, 1) {
			return Subtle.Render("(all values zero)")
		}
		data = make([]float64, len(values))
		for i, v := range values {
			data[i] = math.Log10(math.Max(v, floor))
		}
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
