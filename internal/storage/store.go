package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/asora/internal/analysis"
	"github.com/san-kum/asora/internal/asora"
	"github.com/san-kum/asora/internal/config"
	"github.com/san-kum/asora/internal/grid"
	"github.com/san-kum/asora/internal/raytrace"
	"github.com/san-kum/asora/internal/scenario"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	sourcesFile  = "sources.csv"
	summaryFile  = "summary.csv"
	gridsDir     = "grids"
)

var ErrNoGrids = errors.New("run has no stored grids")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Timestamp  time.Time `json:"timestamp"`
	N          int       `json:"n"`
	BoxMpc     float64   `json:"box_mpc"`
	Dr         float64   `json:"dr"`
	Periodic   bool      `json:"periodic"`
	Radius     float64   `json:"radius"`
	QMax       int       `json:"q_max"`
	BatchWidth int       `json:"batch_width"`
	Backend    string    `json:"backend"`
	AddPath    string    `json:"add_path"`
	Sources    int       `json:"sources"`
	Batches    int       `json:"batches"`
	ElapsedMs  float64   `json:"elapsed_ms"`
	Emitted    float64   `json:"emitted"`
	Absorbed   float64   `json:"absorbed"`
	Fraction   float64   `json:"absorbed_fraction"`
	HasGrids   bool      `json:"has_grids"`
}

// GridSummary is one row of summary.csv.
type GridSummary struct {
	Grid    string  `csv:"grid" json:"grid"`
	Mean    float64 `csv:"mean" json:"mean"`
	Std     float64 `csv:"std" json:"std"`
	Min     float64 `csv:"min" json:"min"`
	Max     float64 `csv:"max" json:"max"`
	Sum     float64 `csv:"sum" json:"sum"`
	NonZero int     `csv:"nonzero" json:"nonzero"`
}

// Run is everything a stored run keeps. Results may be nil, in which case
// only metadata, config, sources and summaries are written.
type Run struct {
	Meta    RunMetadata
	Config  *config.Config
	Sources []raytrace.Source
	Results *asora.Results
	Summary []GridSummary
}

// GridName names an output grid on disk, e.g. "phi_ion_HI".
func GridName(quantity string, sp raytrace.Species) string {
	return quantity + "_" + sp.String()
}

// Quantities lists the output grids of each species.
var Quantities = []string{"coldens", "phi_ion", "phi_heat"}

// Grids maps every output grid of res to its GridName.
func Grids(res *asora.Results) map[string]*grid.Grid {
	out := make(map[string]*grid.Grid)
	for _, sp := range raytrace.AllSpecies {
		out[GridName("coldens", sp)] = res.ColDens[sp]
		out[GridName("phi_ion", sp)] = res.PhiIon[sp]
		out[GridName("phi_heat", sp)] = res.PhiHeat[sp]
	}
	return out
}

// Summarize computes the summary row of every output grid, in a stable
// order.
func Summarize(res *asora.Results) []GridSummary {
	grids := Grids(res)
	rows := make([]GridSummary, 0, len(grids))
	for _, sp := range raytrace.AllSpecies {
		for _, q := range Quantities {
			name := GridName(q, sp)
			st := analysis.Summarize(grids[name])
			rows = append(rows, GridSummary{
				Grid:    name,
				Mean:    st.Mean,
				Std:     st.Std,
				Min:     st.Min,
				Max:     st.Max,
				Sum:     st.Sum,
				NonZero: st.NonZero,
			})
		}
	}
	return rows
}

func (s *Store) mkRunDir(name string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runID := base
	for i := 2; ; i++ {
		err := os.Mkdir(filepath.Join(s.baseDir, runID), 0755)
		if err == nil {
			return runID, filepath.Join(s.baseDir, runID), nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func (s *Store) Save(run Run) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	name := run.Meta.Name
	if name == "" {
		name = "run"
	}
	runID, runDir, err := s.mkRunDir(name)
	if err != nil {
		return "", err
	}

	meta := run.Meta
	meta.ID = runID
	meta.Name = name
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.HasGrids = run.Results != nil

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if run.Config != nil {
		if err := config.Save(filepath.Join(runDir, configFile), run.Config); err != nil {
			return "", err
		}
	}
	if err := writeFile(filepath.Join(runDir, sourcesFile), func(w io.Writer) error {
		return scenario.WriteSources(w, run.Sources)
	}); err != nil {
		return "", err
	}

	summary := run.Summary
	if summary == nil && run.Results != nil {
		summary = Summarize(run.Results)
	}
	if len(summary) > 0 {
		if err := writeFile(filepath.Join(runDir, summaryFile), func(w io.Writer) error {
			return gocsv.Marshal(summary, w)
		}); err != nil {
			return "", err
		}
	}

	if run.Results != nil {
		if err := os.MkdirAll(filepath.Join(runDir, gridsDir), 0755); err != nil {
			return "", err
		}
		for name, g := range Grids(run.Results) {
			if err := writeGrid(filepath.Join(runDir, gridsDir, name+".bin"), g); err != nil {
				return "", fmt.Errorf("writing %s: %w", name, err)
			}
		}
	}

	return runID, nil
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadSources(runID string) ([]raytrace.Source, error) {
	return scenario.LoadSources(filepath.Join(s.baseDir, runID, sourcesFile))
}

func (s *Store) LoadSummary(runID string) ([]GridSummary, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, summaryFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []GridSummary
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadGrid reads one output grid, named as by GridName.
func (s *Store) LoadGrid(runID, name string) (*grid.Grid, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	if !meta.HasGrids {
		return nil, fmt.Errorf("%s: %w", runID, ErrNoGrids)
	}
	return readGrid(filepath.Join(s.baseDir, runID, gridsDir, name+".bin"), meta.N)
}

func (s *Store) LoadResults(runID string) (*asora.Results, error) {
	res := &asora.Results{}
	for _, sp := range raytrace.AllSpecies {
		for _, q := range Quantities {
			g, err := s.LoadGrid(runID, GridName(q, sp))
			if err != nil {
				return nil, err
			}
			switch q {
			case "coldens":
				res.ColDens[sp] = g
			case "phi_ion":
				res.PhiIon[sp] = g
			default:
				res.PhiHeat[sp] = g
			}
		}
	}
	return res, nil
}

// ExportJSON writes a run's metadata and summary as one JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, summary []GridSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*RunMetadata
		Summary []GridSummary `json:"summary"`
	}{meta, summary})
}

func writeJSON(path string, v any) error {
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Grids are stored as an (N*N)×N gonum matrix, which keeps the row-major
// cell order.
func writeGrid(path string, g *grid.Grid) error {
	m := mat.NewDense(g.N*g.N, g.N, g.Data)
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readGrid(path string, n int) (*grid.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m mat.Dense
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r, c := m.Dims()
	if r != n*n || c != n {
		return nil, fmt.Errorf("%s: %w: stored %dx%d, want %dx%d", path, grid.ErrSizeMismatch, r, c, n*n, n)
	}
	return grid.FromSlice(n, m.RawMatrix().Data)
}
