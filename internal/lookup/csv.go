package lookup

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gocarina/gocsv"
)

// Record is one CSV row: the four curves of bin Freq at sample Index.
type Record struct {
	Freq       int     `csv:"freq"`
	Index      int     `csv:"index"`
	Tau        float64 `csv:"tau"`
	PhotoThin  float64 `csv:"photo_thin"`
	PhotoThick float64 `csv:"photo_thick"`
	HeatThin   float64 `csv:"heat_thin"`
	HeatThick  float64 `csv:"heat_thick"`
}

// WriteCSV writes t as one row per (bin, sample).
func WriteCSV(w io.Writer, t *Table) error {
	records := make([]Record, 0, t.numFreq*(t.numTau+1))
	for f := 0; f < t.numFreq; f++ {
		for idx := 0; idx <= t.numTau; idx++ {
			records = append(records, Record{
				Freq:       f,
				Index:      idx,
				Tau:        t.Tau(idx),
				PhotoThin:  t.Value(PhotoThin, f, idx),
				PhotoThick: t.Value(PhotoThick, f, idx),
				HeatThin:   t.Value(HeatThin, f, idx),
				HeatThick:  t.Value(HeatThick, f, idx),
			})
		}
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}

// ReadCSV parses a table written by WriteCSV. The optical-depth sampling is
// recovered from the tau column of samples 1 and 2.
func ReadCSV(r io.Reader) (*Table, error) {
	var records []Record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidTable)
	}

	spec := Spec{}
	for _, rec := range records {
		if rec.Freq < 0 || rec.Index < 0 {
			return nil, fmt.Errorf("%w: negative freq/index in row %+v", ErrInvalidTable, rec)
		}
		spec.NumFreq = max(spec.NumFreq, rec.Freq+1)
		spec.NumTau = max(spec.NumTau, rec.Index)
	}

	var tau1, tau2 float64
	for _, rec := range records {
		if rec.Freq != 0 {
			continue
		}
		switch rec.Index {
		case 1:
			tau1 = rec.Tau
		case 2:
			tau2 = rec.Tau
		}
	}
	if !(tau1 > 0) {
		return nil, fmt.Errorf("%w: sample 1 must have positive tau", ErrInvalidTable)
	}
	spec.MinLogTau = math.Log10(tau1)
	spec.DLogTau = 1
	if tau2 > tau1 {
		spec.DLogTau = math.Log10(tau2) - spec.MinLogTau
	}

	n := spec.NumFreq * spec.rowLen()
	var curves [numKinds][]float64
	for k := range curves {
		curves[k] = make([]float64, n)
	}
	filled := make([]bool, n)
	for _, rec := range records {
		at := rec.Freq*spec.rowLen() + rec.Index
		if filled[at] {
			return nil, fmt.Errorf("%w: duplicate row freq=%d index=%d", ErrInvalidTable, rec.Freq, rec.Index)
		}
		filled[at] = true
		curves[PhotoThin][at] = rec.PhotoThin
		curves[PhotoThick][at] = rec.PhotoThick
		curves[HeatThin][at] = rec.HeatThin
		curves[HeatThick][at] = rec.HeatThick
	}
	for at, ok := range filled {
		if !ok {
			return nil, fmt.Errorf("%w: missing row freq=%d index=%d", ErrInvalidTable, at/spec.rowLen(), at%spec.rowLen())
		}
	}

	return New(spec, curves[PhotoThin], curves[PhotoThick], curves[HeatThin], curves[HeatThick])
}

func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func SaveCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
