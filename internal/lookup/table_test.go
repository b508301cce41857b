package lookup

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func testSpec() Spec {
	return Spec{MinLogTau: -4, DLogTau: 0.01, NumTau: 700, NumFreq: 2}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		n    int
	}{
		{"zero num_tau", Spec{MinLogTau: -1, DLogTau: 0.1, NumTau: 0, NumFreq: 1}, 1},
		{"zero num_freq", Spec{MinLogTau: -1, DLogTau: 0.1, NumTau: 4, NumFreq: 0}, 0},
		{"non-positive dlogtau", Spec{MinLogTau: -1, DLogTau: 0, NumTau: 4, NumFreq: 1}, 5},
		{"wrong curve length", Spec{MinLogTau: -1, DLogTau: 0.1, NumTau: 4, NumFreq: 1}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := make([]float64, tt.n)
			if _, err := New(tt.spec, c, c, c, c); !errors.Is(err, ErrInvalidTable) {
				t.Errorf("expected ErrInvalidTable, got %v", err)
			}
		})
	}
}

func TestNewCopiesCurves(t *testing.T) {
	spec := Spec{MinLogTau: -1, DLogTau: 0.5, NumTau: 2, NumFreq: 1}
	c := []float64{1, 2, 3}
	tab, err := New(spec, c, c, c, c)
	if err != nil {
		t.Fatal(err)
	}
	c[0] = 99
	if tab.Value(PhotoThin, 0, 0) != 1 {
		t.Error("table aliases caller slice")
	}
}

func TestInterpSamples(t *testing.T) {
	tab, err := Grey(testSpec(), 0)
	if err != nil {
		t.Fatal(err)
	}

	if got := tab.Interp(PhotoThick, 0, 0); got != 1 {
		t.Errorf("Interp at tau=0 = %v, want 1", got)
	}

	for _, idx := range []int{1, 50, 400, 700} {
		tau := tab.Tau(idx)
		got := tab.Interp(PhotoThick, 1, tau)
		if math.Abs(got-math.Exp(-tau)) > 1e-9 {
			t.Errorf("Interp at sample %d (tau=%g) = %v, want %v", idx, tau, got, math.Exp(-tau))
		}
	}

	// beyond the last sample the curve is clamped
	last := tab.Value(PhotoThick, 0, tab.NumTau())
	if got := tab.Interp(PhotoThick, 0, 1e9); got != last {
		t.Errorf("Interp beyond range = %v, want clamp %v", got, last)
	}
}

func TestGreyRatesMatchAnalytic(t *testing.T) {
	tab, err := Grey(testSpec(), 2.0)
	if err != nil {
		t.Fatal(err)
	}

	strength, vol := 1e50, 3.0
	tests := []struct {
		name          string
		tauIn, tauOut float64
	}{
		{"thick", 0.1, 0.6},
		{"from zero", 0, 0.3},
		{"deep", 2.0, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ion, heat := tab.Rates(0, strength, tt.tauIn, tt.tauOut, vol)
			want := strength / vol * (math.Exp(-tt.tauIn) - math.Exp(-tt.tauOut))
			if math.Abs(ion-want)/want > 1e-3 {
				t.Errorf("ion = %g, want %g", ion, want)
			}
			if math.Abs(heat-2*ion)/heat > 1e-12 {
				t.Errorf("heat = %g, want 2*ion = %g", heat, 2*ion)
			}
		})
	}
}

func TestThinBranch(t *testing.T) {
	tab, err := Grey(testSpec(), 1.0)
	if err != nil {
		t.Fatal(err)
	}

	tauIn := 0.5
	tauOut := tauIn + 1e-9
	got := tab.Photo(0, 10, tauIn, tauOut, 2)
	want := 10.0 / 2 * (tauOut - tauIn) * tab.Interp(PhotoThin, 0, tauIn)
	if math.Abs(got-want) > 1e-20 {
		t.Errorf("thin rate = %g, want %g", got, want)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	tab, err := Grey(Spec{MinLogTau: -3, DLogTau: 0.25, NumTau: 20, NumFreq: 3}, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tab); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if back.NumFreq() != 3 || back.NumTau() != 20 {
		t.Fatalf("shape = (%d,%d), want (3,20)", back.NumFreq(), back.NumTau())
	}
	spec := back.Spec()
	if math.Abs(spec.MinLogTau+3) > 1e-9 || math.Abs(spec.DLogTau-0.25) > 1e-9 {
		t.Errorf("recovered sampling %+v", spec)
	}
	for f := 0; f < 3; f++ {
		for idx := 0; idx <= 20; idx++ {
			a, b := tab.Value(HeatThick, f, idx), back.Value(HeatThick, f, idx)
			if math.Abs(a-b) > 1e-12*math.Max(1, math.Abs(a)) {
				t.Fatalf("heat_thick[%d][%d] = %v, want %v", f, idx, b, a)
			}
		}
	}
}

func TestReadCSVMissingRow(t *testing.T) {
	in := "freq,index,tau,photo_thin,photo_thick,heat_thin,heat_thick\n" +
		"0,0,0,1,1,0,0\n" +
		"0,2,0.1,1,1,0,0\n"
	if _, err := ReadCSV(bytes.NewBufferString(in)); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("expected ErrInvalidTable, got %v", err)
	}
}

func TestSaveLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grey.csv")
	tab, err := Grey(testSpec(), 2e-11)
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveCSV(path, tab); err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}

	back, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if back.NumFreq() != tab.NumFreq() || back.NumTau() != tab.NumTau() {
		t.Errorf("shape changed: (%d,%d)", back.NumFreq(), back.NumTau())
	}
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
