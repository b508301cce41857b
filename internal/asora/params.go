package asora

import (
	"fmt"
	"math"

	"github.com/san-kum/asora/internal/grid"
	"github.com/san-kum/asora/internal/lookup"
	"github.com/san-kum/asora/internal/octa"
	"github.com/san-kum/asora/internal/raytrace"
)

const (
	DefaultBatchWidth     = 8
	DefaultHeliumFraction = 0.24
	DefaultMaxColDens     = 2.0e30
)

type Params struct {
	// N is the number of cells along each axis.
	N int
	// Dr is the cell width in cm.
	Dr float64
	// R is the raytracing radius in cells. It bounds both the octahedron
	// and the mean free path beyond which no rates are deposited.
	R float64
	// BatchWidth is the number of sources traced concurrently.
	BatchWidth int
	Periodic   bool

	HeliumMassFraction float64
	MaxColDens         float64
}

func DefaultParams(n int, dr float64) Params {
	return Params{
		N:                  n,
		Dr:                 dr,
		R:                  float64(n),
		BatchWidth:         DefaultBatchWidth,
		Periodic:           true,
		HeliumMassFraction: DefaultHeliumFraction,
		MaxColDens:         DefaultMaxColDens,
	}
}

func (p Params) Validate() error {
	if p.N < 1 {
		return fmt.Errorf("%w: n must be positive, got %d", ErrInvalidParams, p.N)
	}
	if !(p.Dr > 0) {
		return fmt.Errorf("%w: dr must be positive, got %g", ErrInvalidParams, p.Dr)
	}
	if p.R < 0 || math.IsNaN(p.R) {
		return fmt.Errorf("%w: radius must be non-negative, got %g", ErrInvalidParams, p.R)
	}
	if p.BatchWidth < 1 {
		return fmt.Errorf("%w: batch width must be positive, got %d", ErrInvalidParams, p.BatchWidth)
	}
	if p.HeliumMassFraction < 0 || p.HeliumMassFraction >= 1 {
		return fmt.Errorf("%w: helium mass fraction must be in [0,1), got %g", ErrInvalidParams, p.HeliumMassFraction)
	}
	if !(p.MaxColDens > 0) {
		return fmt.Errorf("%w: max column density must be positive, got %g", ErrInvalidParams, p.MaxColDens)
	}
	return nil
}

func (p Params) QMax() int {
	return octa.MaxQ(p.R, p.N)
}

func (p Params) geometry() raytrace.Geometry {
	lastL, lastR := octa.HalfBox(p.N)
	mfp := p.R * p.Dr
	return raytrace.Geometry{
		N:          p.N,
		Dr:         p.Dr,
		QMax:       p.QMax(),
		LastL:      lastL,
		LastR:      lastR,
		Periodic:   p.Periodic,
		MFPRadius2: mfp * mfp,
		MaxColDens: p.MaxColDens,
	}
}

// Inputs is the snapshot a single call traces through. Nothing in it is
// modified.
type Inputs struct {
	Density *grid.Grid
	XHII    *grid.Grid
	XHeII   *grid.Grid
	XHeIII  *grid.Grid

	Sources []raytrace.Source
	Sigma   raytrace.CrossSections
	Table   *lookup.Table
}

func (in Inputs) validate(n int) error {
	fields := []struct {
		name string
		g    *grid.Grid
	}{
		{"density", in.Density},
		{"xHII", in.XHII},
		{"xHeII", in.XHeII},
		{"xHeIII", in.XHeIII},
	}
	for _, f := range fields {
		if f.g == nil {
			return fmt.Errorf("%w: %s grid missing", ErrDimensionMismatch, f.name)
		}
		if f.g.N != n || len(f.g.Data) != n*n*n {
			return fmt.Errorf("%w: %s grid has n=%d (%d cells), context has n=%d", ErrDimensionMismatch, f.name, f.g.N, len(f.g.Data), n)
		}
	}

	if err := in.Sigma.Validate(); err != nil {
		return err
	}
	if in.Table == nil {
		return fmt.Errorf("%w: rate table missing", ErrDimensionMismatch)
	}
	if in.Table.NumFreq() != in.Sigma.NumFreq() {
		return fmt.Errorf("%w: table has %d frequency bins, cross sections have %d", ErrDimensionMismatch, in.Table.NumFreq(), in.Sigma.NumFreq())
	}

	for i, s := range in.Sources {
		for _, c := range s.Pos {
			if c < 0 || c >= n {
				return fmt.Errorf("%w: source %d at %v outside mesh of size %d", ErrInvalidSource, i, s.Pos, n)
			}
		}
		if s.Flux < 0 || math.IsNaN(s.Flux) {
			return fmt.Errorf("%w: source %d has flux %g", ErrInvalidSource, i, s.Flux)
		}
	}
	return nil
}

// Medium views the gas grids as the raytracer sees them.
func (in Inputs) Medium(heliumMassFraction float64) raytrace.Medium {
	return raytrace.Medium{
		Density: in.Density.Data,
		XHII:    in.XHII.Data,
		XHeII:   in.XHeII.Data,
		XHeIII:  in.XHeIII.Data,
		AbuHe:   raytrace.HeliumAbundance(heliumMassFraction),
	}
}

// Results holds copies of the output grids of a call.
type Results struct {
	ColDens [raytrace.NumSpecies]*grid.Grid
	PhiIon  [raytrace.NumSpecies]*grid.Grid
	PhiHeat [raytrace.NumSpecies]*grid.Grid
}
