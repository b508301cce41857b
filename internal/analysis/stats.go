package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/asora/internal/grid"
)

// Stats describes the values of one grid.
type Stats struct {
	Mean    float64 `csv:"mean"`
	Std     float64 `csv:"std"`
	Min     float64 `csv:"min"`
	Max     float64 `csv:"max"`
	Sum     float64 `csv:"sum"`
	NonZero int     `csv:"nonzero"`
}

func Summarize(g *grid.Grid) Stats {
	if g == nil || len(g.Data) == 0 {
		return Stats{}
	}
	s := Stats{
		Min: floats.Min(g.Data),
		Max: floats.Max(g.Data),
		Sum: floats.Sum(g.Data),
	}
	s.Mean, s.Std = stat.MeanStdDev(g.Data, nil)
	if len(g.Data) < 2 {
		s.Std = 0
	}
	for _, v := range g.Data {
		if v != 0 {
			s.NonZero++
		}
	}
	return s
}

// Filling is the fraction of cells with a non-zero value.
func (s Stats) Filling(cells int) float64 {
	if cells == 0 {
		return 0
	}
	return float64(s.NonZero) / float64(cells)
}

// Dynamic is the ratio of the largest to the smallest positive value, or 0.
func Dynamic(g *grid.Grid) float64 {
	lo := math.Inf(1)
	for _, v := range g.Data {
		if v > 0 && v < lo {
			lo = v
		}
	}
	if math.IsInf(lo, 1) {
		return 0
	}
	return floats.Max(g.Data) / lo
}

// MaxRelDiff is the largest |a-b| / max(|a|, |b|) over the cells of two
// equally sized grids. Cells that are zero in both count as equal.
func MaxRelDiff(a, b *grid.Grid) (float64, error) {
	if a.N != b.N {
		return 0, fmt.Errorf("grid sizes differ: %d³ vs %d³", a.N, b.N)
	}
	worst := 0.0
	for i, av := range a.Data {
		bv := b.Data[i]
		scale := math.Max(math.Abs(av), math.Abs(bv))
		if scale == 0 {
			continue
		}
		worst = math.Max(worst, math.Abs(av-bv)/scale)
	}
	return worst, nil
}
