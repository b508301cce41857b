package asora

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestParamsValidate(t *testing.T) {
	base := DefaultParams(16, 1e21)
	tests := []struct {
		name  string
		tweak func(*Params)
		ok    bool
	}{
		{"defaults", func(*Params) {}, true},
		{"zero n", func(p *Params) { p.N = 0 }, false},
		{"zero dr", func(p *Params) { p.Dr = 0 }, false},
		{"nan dr", func(p *Params) { p.Dr = math.NaN() }, false},
		{"negative radius", func(p *Params) { p.R = -1 }, false},
		{"zero radius", func(p *Params) { p.R = 0 }, true},
		{"zero batch", func(p *Params) { p.BatchWidth = 0 }, false},
		{"helium one", func(p *Params) { p.HeliumMassFraction = 1 }, false},
		{"no helium", func(p *Params) { p.HeliumMassFraction = 0 }, true},
		{"zero max coldens", func(p *Params) { p.MaxColDens = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.tweak(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestBatches(t *testing.T) {
	tests := []struct {
		width, sources, want int
	}{
		{8, 0, 0},
		{8, 1, 1},
		{8, 8, 1},
		{8, 9, 2},
		{1, 5, 5},
		{3, 10, 4},
	}
	for _, tt := range tests {
		p := DefaultParams(4, 1)
		p.BatchWidth = tt.width
		if got := p.Batches(tt.sources); got != tt.want {
			t.Errorf("Batches(%d) with width %d = %d, want %d", tt.sources, tt.width, got, tt.want)
		}
	}
}

func TestGeometry(t *testing.T) {
	p := DefaultParams(64, 2.0)
	p.R = 10
	p.Periodic = false

	g := p.geometry()
	if g.QMax != 18 {
		t.Errorf("q_max = %d, want 18", g.QMax)
	}
	if g.LastL != -32 || g.LastR != 31 {
		t.Errorf("half box = [%d,%d], want [-32,31]", g.LastL, g.LastR)
	}
	if g.MFPRadius2 != 400 {
		t.Errorf("mfp radius squared = %g, want 400", g.MFPRadius2)
	}
	if g.Periodic {
		t.Error("periodic flag lost")
	}
}

func TestLaunchError(t *testing.T) {
	cause := fmt.Errorf("%w: bad grid", ErrDimensionMismatch)
	err := error(&LaunchError{Op: "raytrace batch", Batch: 3, Code: CodeKernel, Err: cause})

	if !errors.Is(err, ErrDimensionMismatch) {
		t.Error("LaunchError does not unwrap to its cause")
	}
	var le *LaunchError
	if !errors.As(err, &le) || le.Batch != 3 {
		t.Errorf("errors.As failed: %v", err)
	}
	want := "asora: raytrace batch failed in batch 3 [kernel]: asora: dimension mismatch: bad grid"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	noBatch := &LaunchError{Op: "validate inputs", Batch: -1, Code: CodeInvalid, Err: ErrInvalidSource}
	if noBatch.Error() != "asora: validate inputs failed [invalid]: asora: invalid source" {
		t.Errorf("unexpected message %q", noBatch.Error())
	}
}
