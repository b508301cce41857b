package analysis

import (
	"github.com/san-kum/asora/internal/asora"
	"github.com/san-kum/asora/internal/lookup"
	"github.com/san-kum/asora/internal/raytrace"
)

// Budget compares photons absorbed per second on the mesh with photons
// emitted per second by every source.
type Budget struct {
	Emitted  float64
	Absorbed float64
	// Fraction is Absorbed/Emitted. Below one means photons escaped the
	// traced volume or were cut by the mean free path.
	Fraction  float64
	BySpecies [raytrace.NumSpecies]float64
}

// PhotonBudget sums ionizations over every cell and species and compares
// them with the unattenuated emission of every source in every bin.
func PhotonBudget(res *asora.Results, in asora.Inputs, p asora.Params) Budget {
	var b Budget
	cellVol := p.Dr * p.Dr * p.Dr
	medium := in.Medium(p.HeliumMassFraction)

	for off := range in.Density.Data {
		dens := medium.Densities(off)
		for _, sp := range raytrace.AllSpecies {
			b.BySpecies[sp] += res.PhiIon[sp].Data[off] * dens[sp] * cellVol
		}
	}
	for _, v := range b.BySpecies {
		b.Absorbed += v
	}

	b.Emitted = Emission(in.Sources, in.Table)
	if b.Emitted > 0 {
		b.Fraction = b.Absorbed / b.Emitted
	}
	return b
}

// Emission is the photon rate of sources summed over the bins of t.
func Emission(sources []raytrace.Source, t *lookup.Table) float64 {
	perFlux := 0.0
	for f := 0; f < t.NumFreq(); f++ {
		perFlux += t.Value(lookup.PhotoThick, f, 0)
	}
	total := 0.0
	for _, s := range sources {
		total += s.Flux * perFlux
	}
	return total
}
