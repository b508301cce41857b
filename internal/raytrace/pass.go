package raytrace

import (
	"math"

	"github.com/san-kum/asora/internal/compute"
	"github.com/san-kum/asora/internal/grid"
	"github.com/san-kum/asora/internal/lookup"
	"github.com/san-kum/asora/internal/octa"
)

const fourPi = 4 * math.Pi

// Scratch is the private column-density state of one source: the outgoing
// column density of every traced cell, per species.
type Scratch [NumSpecies][]float64

func NewScratch(cells int) Scratch {
	var s Scratch
	for i := range s {
		s[i] = make([]float64, cells)
	}
	return s
}

func (s Scratch) Zero() {
	for _, cd := range s {
		clear(cd)
	}
}

// Pass traces sources through a fixed medium into shared outputs.
type Pass struct {
	Geom   Geometry
	Medium Medium
	Sigma  CrossSections
	Table  *lookup.Table
	Out    Outputs
	Add    compute.AddFunc

	threshold [NumSpecies]float64
}

// NewPass binds the inputs of one call.
func NewPass(geom Geometry, medium Medium, sigma CrossSections, table *lookup.Table, out Outputs, add compute.AddFunc) *Pass {
	p := &Pass{
		Geom:   geom,
		Medium: medium,
		Sigma:  sigma,
		Table:  table,
		Out:    out,
		Add:    add,
	}
	for _, s := range AllSpecies {
		p.threshold[s] = sigma.Threshold(s)
	}
	return p
}

// Run traces src shell by shell. scratch must be zero on entry and is owned
// by this source until Run returns.
func (p *Pass) Run(src Source, scratch Scratch, team *compute.Team) error {
	for q := 0; q <= p.Geom.QMax; q++ {
		err := team.Run(octa.CellCount(q), func(s int) {
			p.visit(src, q, s, scratch)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// cell is the local state of one (source, cell) pair.
type cell struct {
	off   int
	dens  [NumSpecies]float64
	cdIn  [NumSpecies]float64
	cdOut [NumSpecies]float64
	path  float64
	dist2 float64
	volPh float64
}

func (p *Pass) visit(src Source, q, s int, scratch Scratch) {
	di, dj, dk := octa.Cell(q, s)
	if !octa.Within(di, dj, dk, p.Geom.LastL, p.Geom.LastR) {
		return
	}

	i0, j0, k0 := src.Pos[0], src.Pos[1], src.Pos[2]
	i, j, k := i0+di, j0+dj, k0+dk
	if !p.Geom.Periodic && !grid.InBox(i, j, k, p.Geom.N) {
		return
	}

	c := p.trace(i, j, k, i0, j0, k0, scratch)

	for _, sp := range AllSpecies {
		p.Add(scratch[sp], c.off, c.cdOut[sp])
		p.Add(p.Out.ColDens[sp], c.off, c.cdOut[sp])
	}

	if !p.deposits(c) {
		return
	}
	p.depositRates(src.Flux, c)
}

// trace computes the column densities entering and leaving cell (i, j, k).
func (p *Pass) trace(i, j, k, i0, j0, k0 int, scratch Scratch) cell {
	n, dr := p.Geom.N, p.Geom.Dr
	c := cell{off: grid.Offset(i, j, k, n)}
	c.dens = p.Medium.Densities(c.off)

	if i == i0 && j == j0 && k == k0 {
		c.path = 0.5 * dr
		c.volPh = dr * dr * dr
	} else {
		var path float64
		for _, sp := range AllSpecies {
			c.cdIn[sp], path = Interpolate(i, j, k, i0, j0, k0, scratch[sp], p.threshold[sp], n)
		}
		c.path = path * dr

		xs := dr * float64(i-i0)
		ys := dr * float64(j-j0)
		zs := dr * float64(k-k0)
		c.dist2 = xs*xs + ys*ys + zs*zs
		c.volPh = fourPi * c.dist2 * c.path
	}

	for _, sp := range AllSpecies {
		c.cdOut[sp] = c.cdIn[sp] + c.dens[sp]*c.path
	}
	return c
}

// deposits reports whether the cell is neither saturated nor beyond the
// mean free path.
func (p *Pass) deposits(c cell) bool {
	for _, cd := range c.cdOut {
		if cd >= p.Geom.MaxColDens {
			return false
		}
	}
	return c.dist2 <= p.Geom.MFPRadius2
}

func (p *Pass) depositRates(strength float64, c cell) {
	var ion, heat [NumSpecies]float64
	Split(p.Sigma, p.Table, strength, c.cdIn, c.cdOut, c.dens, c.volPh, &ion, &heat)

	for _, sp := range AllSpecies {
		if ion[sp] != 0 {
			p.Add(p.Out.PhiIon[sp], c.off, ion[sp])
		}
		if heat[sp] != 0 {
			p.Add(p.Out.PhiHeat[sp], c.off, heat[sp])
		}
	}
}
