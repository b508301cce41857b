// Package export renders stored grids and profiles as standalone SVG.
package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/asora/internal/analysis"
	"github.com/san-kum/asora/internal/grid"
	"github.com/san-kum/asora/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG draws every lit braille dot of canvas as a circle, scale
// pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	var sb strings.Builder
	header(&sb, float64(canvas.Width)*scale*2, float64(canvas.Height)*scale*4)
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	bits := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	r := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := int(canvas.Grid[row][col] - 0x2800)
			if pattern <= 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&bits[dy][dx] == 0 {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, r)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SliceSVG draws the plane axis=index of g as a heat map, one square of
// scale pixels per cell. Colours run over log10 of the positive values, the
// brightest within decades of the maximum. Cells at or below zero stay dark.
func SliceSVG(g *grid.Grid, axis, index int, scale, decades float64) string {
	n := g.N
	vals := make([]float64, n*n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			var p [3]int
			switch axis {
			case 0:
				p = [3]int{index, u, v}
			case 1:
				p = [3]int{u, index, v}
			default:
				p = [3]int{u, v, index}
			}
			vals[v*n+u] = g.Data[grid.Offset3(p, n)]
		}
	}

	var sb strings.Builder
	side := float64(n) * scale
	header(&sb, side, side)

	top := floats.Max(vals)
	if top <= 0 {
		sb.WriteString("</svg>")
		return sb.String()
	}
	hi := math.Log10(top)
	lo := hi - decades

	for i, val := range vals {
		if val <= 0 {
			continue
		}
		t := (math.Log10(val) - lo) / (hi - lo)
		if t <= 0 {
			continue
		}
		u, v := i%n, i/n
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			float64(u)*scale, float64(v)*scale, scale, scale, ramp(math.Min(t, 1)))
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// ramp maps t in [0, 1] from dark blue through orange to white.
func ramp(t float64) string {
	var r, g, b float64
	switch {
	case t < 0.5:
		s := t / 0.5
		r, g, b = 20+s*235, 20+s*120, 90-s*70
	default:
		s := (t - 0.5) / 0.5
		r, g, b = 255, 140+s*115, 20+s*235
	}
	return fmt.Sprintf("#%02x%02x%02x", int(r), int(g), int(b))
}

// ProfileSVG plots the bin means of a radial profile as a polyline. With
// logScale, bins without a positive mean are skipped.
func ProfileSVG(profile []analysis.ProfileBin, width, height int, logScale bool, stroke string) string {
	xs := make([]float64, 0, len(profile))
	ys := make([]float64, 0, len(profile))
	for _, b := range profile {
		if b.Count == 0 {
			continue
		}
		y := b.Mean
		if logScale {
			if y <= 0 {
				continue
			}
			y = math.Log10(y)
		}
		xs = append(xs, b.Radius)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return ""
	}

	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	// 10% padding
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	for i := range xs {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// WriteFile writes an SVG document to path.
func WriteFile(path, svg string) error {
	if svg == "" {
		return fmt.Errorf("nothing to draw for %s", path)
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
