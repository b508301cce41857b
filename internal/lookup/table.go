package lookup

import (
	"errors"
	"fmt"
	"math"
)

// TauPhotoLimit separates the optically thin and thick rate prescriptions.
const TauPhotoLimit = 1.0e-7

var ErrInvalidTable = errors.New("lookup: invalid table")

// Kind selects one of the four curves of a Table.
type Kind int

const (
	PhotoThin Kind = iota
	PhotoThick
	HeatThin
	HeatThick
	numKinds
)

func (k Kind) String() string {
	switch k {
	case PhotoThin:
		return "photo_thin"
	case PhotoThick:
		return "photo_thick"
	case HeatThin:
		return "heat_thin"
	case HeatThick:
		return "heat_thick"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Table struct {
	minLogTau float64
	dLogTau   float64
	numTau    int
	numFreq   int
	curves    [numKinds][]float64
}

// Spec describes the optical-depth sampling of a table.
type Spec struct {
	MinLogTau float64
	DLogTau   float64
	NumTau    int
	NumFreq   int
}

func (s Spec) validate() error {
	if s.NumTau < 1 {
		return fmt.Errorf("%w: num_tau must be >= 1, got %d", ErrInvalidTable, s.NumTau)
	}
	if s.NumFreq < 1 {
		return fmt.Errorf("%w: num_freq must be >= 1, got %d", ErrInvalidTable, s.NumFreq)
	}
	if !(s.DLogTau > 0) {
		return fmt.Errorf("%w: dlogtau must be positive, got %g", ErrInvalidTable, s.DLogTau)
	}
	return nil
}

// Row length of one frequency bin (the τ=0 sample plus NumTau log samples).
func (s Spec) rowLen() int { return s.NumTau + 1 }

// New copies the four curves into an immutable table. Each curve holds
// NumFreq rows of NumTau+1 samples.
func New(spec Spec, photoThin, photoThick, heatThin, heatThick []float64) (*Table, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	want := spec.NumFreq * spec.rowLen()
	t := &Table{
		minLogTau: spec.MinLogTau,
		dLogTau:   spec.DLogTau,
		numTau:    spec.NumTau,
		numFreq:   spec.NumFreq,
	}
	for k, src := range [numKinds][]float64{photoThin, photoThick, heatThin, heatThick} {
		if len(src) != want {
			return nil, fmt.Errorf("%w: %s has %d values, want %d", ErrInvalidTable, Kind(k), len(src), want)
		}
		t.curves[k] = append([]float64(nil), src...)
	}
	return t, nil
}

func (t *Table) Spec() Spec {
	return Spec{MinLogTau: t.minLogTau, DLogTau: t.dLogTau, NumTau: t.numTau, NumFreq: t.numFreq}
}

func (t *Table) NumFreq() int { return t.numFreq }
func (t *Table) NumTau() int  { return t.numTau }

// Tau is the optical depth of sample idx.
func (t *Table) Tau(idx int) float64 {
	return tauAt(t.minLogTau, t.dLogTau, idx)
}

// Value returns a raw table sample.
func (t *Table) Value(kind Kind, freq, idx int) float64 {
	return t.curves[kind][freq*(t.numTau+1)+idx]
}

// Interp linearly interpolates curve kind of bin freq at optical depth tau.
func (t *Table) Interp(kind Kind, freq int, tau float64) float64 {
	row := t.curves[kind][freq*(t.numTau+1) : (freq+1)*(t.numTau+1)]

	logTau := math.Log10(math.Max(1.0e-20, tau))
	realI := math.Min(float64(t.numTau), math.Max(0, 1+(logTau-t.minLogTau)/t.dLogTau))
	i0 := int(realI)
	i1 := min(t.numTau, i0+1)
	residual := realI - float64(i0)

	return row[i0] + residual*(row[i1]-row[i0])
}

// Photo is the total photo-ionization rate deposited in a cell crossed from
// optical depth tauIn to tauOut by a source of the given strength, per
// photon-conserving volume vol.
func (t *Table) Photo(freq int, strength, tauIn, tauOut, vol float64) float64 {
	return t.rate(PhotoThin, PhotoThick, freq, strength, tauIn, tauOut, vol)
}

// Heat is the heating counterpart of Photo.
func (t *Table) Heat(freq int, strength, tauIn, tauOut, vol float64) float64 {
	return t.rate(HeatThin, HeatThick, freq, strength, tauIn, tauOut, vol)
}

// Rates returns Photo and Heat together.
func (t *Table) Rates(freq int, strength, tauIn, tauOut, vol float64) (ion, heat float64) {
	return t.Photo(freq, strength, tauIn, tauOut, vol), t.Heat(freq, strength, tauIn, tauOut, vol)
}

func (t *Table) rate(thin, thick Kind, freq int, strength, tauIn, tauOut, vol float64) float64 {
	prefact := strength / vol
	if math.Abs(tauOut-tauIn) > TauPhotoLimit {
		return prefact * (t.Interp(thick, freq, tauIn) - t.Interp(thick, freq, tauOut))
	}
	return prefact * (tauOut - tauIn) * t.Interp(thin, freq, tauIn)
}

func tauAt(minLogTau, dLogTau float64, idx int) float64 {
	if idx == 0 {
		return 0
	}
	return math.Pow(10, minLogTau+float64(idx-1)*dLogTau)
}
