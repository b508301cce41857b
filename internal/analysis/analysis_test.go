package analysis

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/asora/internal/asora"
	"github.com/san-kum/asora/internal/grid"
	"github.com/san-kum/asora/internal/lookup"
	"github.com/san-kum/asora/internal/raytrace"
)

func TestSummarize(t *testing.T) {
	g := grid.New(2)
	copy(g.Data, []float64{0, 1, 2, 3, 0, 0, 4, 6})

	s := Summarize(g)
	if s.Sum != 16 || s.Mean != 2 || s.Min != 0 || s.Max != 6 || s.NonZero != 5 {
		t.Errorf("unexpected stats %+v", s)
	}
	// sample standard deviation of the values above
	if want := math.Sqrt(34.0 / 7); math.Abs(s.Std-want) > 1e-12 {
		t.Errorf("std = %g, want %g", s.Std, want)
	}
	if f := s.Filling(8); f != 5.0/8 {
		t.Errorf("filling = %g", f)
	}
	if d := Dynamic(g); d != 6 {
		t.Errorf("dynamic range = %g, want 6", d)
	}
	if d := Dynamic(grid.New(2)); d != 0 {
		t.Errorf("dynamic range of zero grid = %g", d)
	}
}

func TestMaxRelDiff(t *testing.T) {
	a, b := grid.New(2), grid.New(2)
	a.Data[1], b.Data[1] = 4, 4
	a.Data[3], b.Data[3] = 2, 1.5
	b.Data[5] = 1e-30

	d, err := MaxRelDiff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	// cell 5 is zero in a only
	if d != 1 {
		t.Errorf("max relative difference = %g, want 1", d)
	}

	b.Data[5] = 0
	if d, _ := MaxRelDiff(a, b); d != 0.25 {
		t.Errorf("max relative difference = %g, want 0.25", d)
	}
	if _, err := MaxRelDiff(a, grid.New(3)); err == nil {
		t.Error("expected error for mismatched sizes")
	}
}

func TestRadialProfile(t *testing.T) {
	const n = 9
	center := [3]int{4, 4, 4}
	g := grid.New(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				if i == 4 && j == 4 && (k == 4 || k == 5) {
					g.Set(i, j, k, 10)
				} else if i == 4 && j == 4 {
					g.Set(i, j, k, 1)
				}
			}
		}
	}

	p := RadialProfile(g, center, 3, false)
	if len(p) != 3 {
		t.Fatalf("expected 3 bins, got %d", len(p))
	}
	if p[0].Count != 1 || p[0].Mean != 10 || p[0].Std != 0 {
		t.Errorf("center bin %+v", p[0])
	}
	// six face neighbours and twelve edge neighbours round to r = 1
	if p[1].Count != 18 || p[1].Max != 10 || p[1].Min != 0 {
		t.Errorf("first shell %+v", p[1])
	}
	if m := Means(p); len(m) != 3 || m[0] != 10 {
		t.Errorf("means %v", m)
	}
}

func TestRadialProfilePeriodic(t *testing.T) {
	const n = 6
	g := grid.Filled(n, 0)
	g.Set(n-1, 0, 0, 5)

	p := RadialProfile(g, [3]int{0, 0, 0}, 2, true)
	if p[1].Max != 5 {
		t.Errorf("wrapped neighbour not in first shell: %+v", p[1])
	}
	p = RadialProfile(g, [3]int{0, 0, 0}, 2, false)
	if p[1].Max != 0 {
		t.Errorf("non-periodic profile wrapped: %+v", p[1])
	}
}

func thickInputs(t *testing.T, n int) asora.Inputs {
	t.Helper()
	table, err := lookup.Grey(lookup.DefaultSpec(3), 1e-11)
	if err != nil {
		t.Fatal(err)
	}
	return asora.Inputs{
		Density: grid.Filled(n, 1),
		XHII:    grid.New(n),
		XHeII:   grid.New(n),
		XHeIII:  grid.New(n),
		Sources: []raytrace.Source{
			{Pos: [3]int{1, 1, 1}, Flux: 1e52},
			{Pos: [3]int{4, 2, 0}, Flux: 3e51},
		},
		Sigma: raytrace.CrossSections{
			HI:      []float64{6.30e-18, 1.20e-18, 2.0e-19},
			HeI:     []float64{0, 7.43e-18, 1.1e-18},
			HeII:    []float64{0, 0, 1.58e-18},
			NumBin1: 1,
			NumBin2: 1,
			NumBin3: 1,
		},
		Table: table,
	}
}

func TestPhotonBudgetClosesInThickMedium(t *testing.T) {
	const n = 6
	in := thickInputs(t, n)
	p := asora.DefaultParams(n, 3e21)

	c, err := asora.Open(p, asora.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, err := c.DoAllSources(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	res, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	b := PhotonBudget(res, in, p)
	if want := 3 * (1e52 + 3e51); math.Abs(b.Emitted-want) > 1e-12*want {
		t.Errorf("emitted = %g, want %g", b.Emitted, want)
	}
	if math.Abs(b.Fraction-1) > 1e-9 {
		t.Errorf("absorbed fraction = %.12f, want 1", b.Fraction)
	}
	if b.BySpecies[raytrace.HI] <= 0 || b.BySpecies[raytrace.HeI] <= 0 || b.BySpecies[raytrace.HeII] != 0 {
		t.Errorf("unexpected species split %v", b.BySpecies)
	}
}
