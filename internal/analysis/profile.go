package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/asora/internal/grid"
)

// ProfileBin is one spherical shell of a radial profile. Radius is the bin
// center in cells.
type ProfileBin struct {
	Radius float64 `csv:"radius"`
	Mean   float64 `csv:"mean"`
	Std    float64 `csv:"std"`
	Min    float64 `csv:"min"`
	Max    float64 `csv:"max"`
	Count  int     `csv:"count"`
}

// RadialProfile averages g over unit-width spherical shells around center,
// out to maxRadius cells. Periodic meshes use the nearest image of each cell.
func RadialProfile(g *grid.Grid, center [3]int, maxRadius float64, periodic bool) []ProfileBin {
	n := g.N
	bins := int(math.Ceil(maxRadius))
	if bins <= 0 {
		return nil
	}
	samples := make([][]float64, bins)

	for off, v := range g.Data {
		i, j, k := grid.Coords(off, n)
		d := [3]int{i - center[0], j - center[1], k - center[2]}
		if periodic {
			for a := range d {
				d[a] = nearest(d[a], n)
			}
		}
		r := math.Sqrt(float64(d[0]*d[0] + d[1]*d[1] + d[2]*d[2]))
		b := int(math.Floor(r + 0.5))
		if b >= bins {
			continue
		}
		samples[b] = append(samples[b], v)
	}

	profile := make([]ProfileBin, 0, bins)
	for b, vals := range samples {
		if len(vals) == 0 {
			continue
		}
		p := ProfileBin{Radius: float64(b), Count: len(vals), Min: math.Inf(1), Max: math.Inf(-1)}
		p.Mean, p.Std = stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			p.Std = 0
		}
		for _, v := range vals {
			p.Min = math.Min(p.Min, v)
			p.Max = math.Max(p.Max, v)
		}
		profile = append(profile, p)
	}
	return profile
}

func nearest(d, n int) int {
	d = grid.Wrap(d, n)
	if d > n/2 {
		d -= n
	}
	return d
}

// Means extracts the mean column of a profile, for plotting.
func Means(profile []ProfileBin) []float64 {
	out := make([]float64, len(profile))
	for i, p := range profile {
		out[i] = p.Mean
	}
	return out
}
