package raytrace

import "github.com/san-kum/asora/internal/lookup"

// Split sums, over every frequency bin, the photon-conserving ionization and
// heating rates of a cell and adds each species' per-atom share to ion and
// heat.
//
// In bin f only the species active in f absorb. The bin's total rate is
// divided among them in proportion to their share of the outgoing optical
// depth, then by their local number density. A species with zero density
// receives nothing.
func Split(sigma CrossSections, table *lookup.Table, strength float64,
	cdIn, cdOut, dens [NumSpecies]float64, volPh float64,
	ion, heat *[NumSpecies]float64) {

	for f := 0; f < sigma.NumFreq(); f++ {
		active := sigma.Active(f)

		var tauIn, tauOut float64
		var tauS [NumSpecies]float64
		for sp := 0; sp < active; sp++ {
			sig := sigma.Of(Species(sp))[f]
			tauIn += cdIn[sp] * sig
			tauS[sp] = cdOut[sp] * sig
			tauOut += tauS[sp]
		}
		if tauOut <= 0 {
			continue
		}

		phi, h := table.Rates(f, strength, tauIn, tauOut, volPh)
		for sp := 0; sp < active; sp++ {
			if dens[sp] <= 0 {
				continue
			}
			frac := tauS[sp] / tauOut / dens[sp]
			ion[sp] += phi * frac
			heat[sp] += h * frac
		}
	}
}
