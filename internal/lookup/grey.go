package lookup

import "math"

// Grey builds the table of a grey-opacity source: the number of photons
// surviving to optical depth tau is e^-tau in every bin, and each absorbed
// photon deposits heatPerPhoton.
//
// With these curves the thick branch reduces to
// strength/vol·(e^-tauIn - e^-tauOut), the analytic grey rate.
func Grey(spec Spec, heatPerPhoton float64) (*Table, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	n := spec.NumFreq * spec.rowLen()
	photo := make([]float64, n)
	heat := make([]float64, n)

	for f := 0; f < spec.NumFreq; f++ {
		for idx := 0; idx <= spec.NumTau; idx++ {
			v := math.Exp(-tauAt(spec.MinLogTau, spec.DLogTau, idx))
			photo[f*spec.rowLen()+idx] = v
			heat[f*spec.rowLen()+idx] = v * heatPerPhoton
		}
	}

	return New(spec, photo, photo, heat, heat)
}

// DefaultSpec samples 2000 log-spaced optical depths from 1e-20 to 1e4.
func DefaultSpec(numFreq int) Spec {
	const (
		minLogTau = -20.0
		maxLogTau = 4.0
		numTau    = 2000
	)
	return Spec{
		MinLogTau: minLogTau,
		DLogTau:   (maxLogTau - minLogTau) / numTau,
		NumTau:    numTau,
		NumFreq:   numFreq,
	}
}
