package scenario

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/asora/internal/raytrace"
)

// SourceRecord is one row of a source list CSV. Positions are zero-based
// cell indices.
type SourceRecord struct {
	X    int     `csv:"x"`
	Y    int     `csv:"y"`
	Z    int     `csv:"z"`
	Flux float64 `csv:"flux"`
}

func ReadSources(r io.Reader) ([]raytrace.Source, error) {
	var records []SourceRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading sources: %w", err)
	}
	sources := make([]raytrace.Source, len(records))
	for i, rec := range records {
		sources[i] = raytrace.Source{Pos: [3]int{rec.X, rec.Y, rec.Z}, Flux: rec.Flux}
	}
	return sources, nil
}

func WriteSources(w io.Writer, sources []raytrace.Source) error {
	records := make([]SourceRecord, len(sources))
	for i, s := range sources {
		records[i] = SourceRecord{X: s.Pos[0], Y: s.Pos[1], Z: s.Pos[2], Flux: s.Flux}
	}
	return gocsv.Marshal(records, w)
}

func LoadSources(path string) ([]raytrace.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSources(f)
}

// RandomSources scatters count sources uniformly over the mesh with fluxes
// between half and one and a half times flux.
func RandomSources(n, count int, flux float64, seed int64) []raytrace.Source {
	rng := rand.New(rand.NewSource(seed))
	sources := make([]raytrace.Source, count)
	for i := range sources {
		sources[i] = raytrace.Source{
			Pos:  [3]int{rng.Intn(n), rng.Intn(n), rng.Intn(n)},
			Flux: flux * (0.5 + rng.Float64()),
		}
	}
	return sources
}
