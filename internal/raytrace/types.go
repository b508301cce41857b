package raytrace

import (
	"errors"
	"fmt"
)

var ErrInvalidCrossSections = errors.New("raytrace: invalid cross sections")

// Species indexes the three absorbers.
type Species int

const (
	HI Species = iota
	HeI
	HeII
	NumSpecies
)

func (s Species) String() string {
	switch s {
	case HI:
		return "HI"
	case HeI:
		return "HeI"
	case HeII:
		return "HeII"
	default:
		return fmt.Sprintf("species(%d)", int(s))
	}
}

// AllSpecies lists the absorbers in index order.
var AllSpecies = [NumSpecies]Species{HI, HeI, HeII}

type Source struct {
	Pos  [3]int
	Flux float64
}

// CrossSections holds the per-bin cross sections of each species. Bins are
// grouped into three consecutive ranges: the first NumBin1 bins ionize HI
// only, the next NumBin2 HI and HeI, the last NumBin3 all three species.
type CrossSections struct {
	HI   []float64
	HeI  []float64
	HeII []float64

	NumBin1 int
	NumBin2 int
	NumBin3 int
}

func (c CrossSections) NumFreq() int {
	return c.NumBin1 + c.NumBin2 + c.NumBin3
}

func (c CrossSections) Validate() error {
	if c.NumBin1 < 0 || c.NumBin2 < 0 || c.NumBin3 < 0 {
		return fmt.Errorf("%w: negative bin count (%d,%d,%d)", ErrInvalidCrossSections, c.NumBin1, c.NumBin2, c.NumBin3)
	}
	n := c.NumFreq()
	if n == 0 {
		return fmt.Errorf("%w: no frequency bins", ErrInvalidCrossSections)
	}
	for _, s := range AllSpecies {
		if got := len(c.Of(s)); got != n {
			return fmt.Errorf("%w: %s has %d bins, want %d", ErrInvalidCrossSections, s, got, n)
		}
	}
	return nil
}

// Of returns the cross sections of species s.
func (c CrossSections) Of(s Species) []float64 {
	switch s {
	case HI:
		return c.HI
	case HeI:
		return c.HeI
	default:
		return c.HeII
	}
}

// Active is the number of species absorbing in bin f: HI, then HeI, then
// HeII are added as f crosses each range boundary.
func (c CrossSections) Active(f int) int {
	switch {
	case f < c.NumBin1:
		return 1
	case f < c.NumBin1+c.NumBin2:
		return 2
	default:
		return 3
	}
}

// FirstBin is the first bin in which species s absorbs.
func (c CrossSections) FirstBin(s Species) int {
	switch s {
	case HI:
		return 0
	case HeI:
		return c.NumBin1
	default:
		return c.NumBin1 + c.NumBin2
	}
}

// Threshold is the cross section of s at its ionization threshold, used to
// weight interpolation. Zero if s never absorbs.
func (c CrossSections) Threshold(s Species) float64 {
	f := c.FirstBin(s)
	sig := c.Of(s)
	if f >= len(sig) {
		return 0
	}
	return sig[f]
}

// HeliumAbundance converts a helium mass fraction into the number fraction
// of helium nuclei among all nuclei.
func HeliumAbundance(massFraction float64) float64 {
	he := massFraction / 4
	return he / ((1 - massFraction) + he)
}

// Medium is the read-only gas snapshot a pass traces through.
type Medium struct {
	Density []float64
	XHII    []float64
	XHeII   []float64
	XHeIII  []float64

	// AbuHe is the helium number fraction, see HeliumAbundance.
	AbuHe float64
}

// Densities returns the HI, HeI and HeII number densities of cell off.
func (m Medium) Densities(off int) [NumSpecies]float64 {
	n := m.Density[off]
	return [NumSpecies]float64{
		n * (1 - m.AbuHe) * (1 - m.XHII[off]),
		n * m.AbuHe * (1 - m.XHeII[off] - m.XHeIII[off]),
		n * m.AbuHe * m.XHeII[off],
	}
}

// Outputs are the shared grids every pass of a call accumulates into.
type Outputs struct {
	ColDens [NumSpecies][]float64
	PhiIon  [NumSpecies][]float64
	PhiHeat [NumSpecies][]float64
}

// Geometry fixes the traversal of every source of a call.
type Geometry struct {
	N    int
	Dr   float64
	QMax int

	// LastL and LastR bound the offsets from the source on each axis.
	LastL, LastR int
	Periodic     bool

	// MFPRadius2 is the squared physical radius beyond which no rates are
	// deposited.
	MFPRadius2 float64
	MaxColDens float64
}
