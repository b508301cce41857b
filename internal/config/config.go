package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/asora/internal/asora"
	"github.com/san-kum/asora/internal/compute"
	"github.com/san-kum/asora/internal/raytrace"
)

// Mpc is one megaparsec in cm.
const Mpc = 3.086e24

const (
	DefaultN             = 32
	DefaultBoxMpc        = 10.0
	DefaultHeatPerPhoton = 1.6e-11
	DefaultDensity       = 2.0e-4
	DefaultFlux          = 1.0e54
	DefaultXHII          = 1.2e-3
	DefaultXHeII         = 1.0e-3
	DefaultXHeIII        = 1.0e-6
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Raytrace   RaytraceConfig   `yaml:"raytrace"`
	Tables     TablesConfig     `yaml:"tables"`
	Spectrum   SpectrumConfig   `yaml:"spectrum"`
	Sources    SourcesConfig    `yaml:"sources"`
	Density    DensityConfig    `yaml:"density"`
	Ionization IonizationConfig `yaml:"ionization"`
}

type GridConfig struct {
	N        int     `yaml:"n"`
	BoxMpc   float64 `yaml:"box_mpc"`
	Periodic bool    `yaml:"periodic"`
}

type RaytraceConfig struct {
	// Radius is in cells; zero means the box size.
	Radius         float64 `yaml:"radius"`
	BatchWidth     int     `yaml:"batch_width"`
	Workers        int     `yaml:"workers"`
	Backend        string  `yaml:"backend"`
	MaxColDens     float64 `yaml:"max_coldens"`
	HeliumFraction float64 `yaml:"helium_fraction"`
}

type TablesConfig struct {
	Kind          string  `yaml:"kind"`
	Path          string  `yaml:"path,omitempty"`
	NumTau        int     `yaml:"num_tau"`
	MinLogTau     float64 `yaml:"min_logtau"`
	DLogTau       float64 `yaml:"dlogtau"`
	HeatPerPhoton float64 `yaml:"heat_per_photon"`
}

type SpectrumConfig struct {
	SigmaHI   []float64 `yaml:"sigma_hi"`
	SigmaHeI  []float64 `yaml:"sigma_hei"`
	SigmaHeII []float64 `yaml:"sigma_heii"`
	NumBin1   int       `yaml:"num_bin_1"`
	NumBin2   int       `yaml:"num_bin_2"`
	NumBin3   int       `yaml:"num_bin_3"`
}

type SourceConfig struct {
	X    int     `yaml:"x"`
	Y    int     `yaml:"y"`
	Z    int     `yaml:"z"`
	Flux float64 `yaml:"flux"`
}

type SourcesConfig struct {
	Inline []SourceConfig `yaml:"inline,omitempty"`
	CSV    string         `yaml:"csv,omitempty"`
	Random int            `yaml:"random"`
	Flux   float64        `yaml:"flux"`
	Seed   int64          `yaml:"seed"`
}

type DensityConfig struct {
	Kind     string  `yaml:"kind"`
	Mean     float64 `yaml:"mean"`
	Contrast float64 `yaml:"contrast"`
	Clumps   int     `yaml:"clumps"`
	Seed     int64   `yaml:"seed"`
}

type IonizationConfig struct {
	XHII   float64 `yaml:"x_hii"`
	XHeII  float64 `yaml:"x_heii"`
	XHeIII float64 `yaml:"x_heiii"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			N:        DefaultN,
			BoxMpc:   DefaultBoxMpc,
			Periodic: true,
		},
		Raytrace: RaytraceConfig{
			BatchWidth:     asora.DefaultBatchWidth,
			Backend:        "auto",
			MaxColDens:     asora.DefaultMaxColDens,
			HeliumFraction: asora.DefaultHeliumFraction,
		},
		Tables: TablesConfig{
			Kind:          "grey",
			NumTau:        2000,
			MinLogTau:     -20,
			DLogTau:       24.0 / 2000,
			HeatPerPhoton: DefaultHeatPerPhoton,
		},
		Spectrum: SpectrumConfig{
			SigmaHI:   []float64{6.30e-18, 1.20e-18, 2.0e-19},
			SigmaHeI:  []float64{0, 7.43e-18, 1.1e-18},
			SigmaHeII: []float64{0, 0, 1.58e-18},
			NumBin1:   1,
			NumBin2:   1,
			NumBin3:   1,
		},
		Sources: SourcesConfig{
			Random: 1,
			Flux:   DefaultFlux,
			Seed:   1,
		},
		Density: DensityConfig{
			Kind:     "uniform",
			Mean:     DefaultDensity,
			Contrast: 10,
			Clumps:   8,
			Seed:     1,
		},
		Ionization: IonizationConfig{
			XHII:   DefaultXHII,
			XHeII:  DefaultXHeII,
			XHeIII: DefaultXHeIII,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.CrossSections().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !slices.Contains(compute.Names(), c.Raytrace.Backend) {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Raytrace.Backend)
	}
	if c.Raytrace.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative", ErrInvalidConfig)
	}

	switch c.Tables.Kind {
	case "grey":
		if c.Tables.NumTau < 2 || !(c.Tables.DLogTau > 0) {
			return fmt.Errorf("%w: grey table needs num_tau >= 2 and dlogtau > 0", ErrInvalidConfig)
		}
	case "csv":
		if c.Tables.Path == "" {
			return fmt.Errorf("%w: csv table needs a path", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown table kind %q", ErrInvalidConfig, c.Tables.Kind)
	}

	switch c.Density.Kind {
	case "uniform":
	case "clumpy":
		if c.Density.Contrast < 1 || c.Density.Clumps < 0 {
			return fmt.Errorf("%w: clumpy density needs contrast >= 1 and clumps >= 0", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown density kind %q", ErrInvalidConfig, c.Density.Kind)
	}
	if c.Density.Mean < 0 {
		return fmt.Errorf("%w: negative mean density", ErrInvalidConfig)
	}

	x := c.Ionization
	for _, f := range []float64{x.XHII, x.XHeII, x.XHeIII} {
		if f < 0 || f > 1 {
			return fmt.Errorf("%w: ionized fractions must be in [0,1]", ErrInvalidConfig)
		}
	}
	if x.XHeII+x.XHeIII > 1 {
		return fmt.Errorf("%w: xHeII + xHeIII exceeds 1", ErrInvalidConfig)
	}

	if c.Sources.Random < 0 || c.Sources.Flux < 0 {
		return fmt.Errorf("%w: random source count and flux must be non-negative", ErrInvalidConfig)
	}
	for i, s := range c.Sources.Inline {
		n := c.Grid.N
		if s.X < 0 || s.X >= n || s.Y < 0 || s.Y >= n || s.Z < 0 || s.Z >= n {
			return fmt.Errorf("%w: inline source %d outside the mesh", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Dr is the cell width in cm.
func (c *Config) Dr() float64 {
	if c.Grid.N <= 0 {
		return 0
	}
	return c.Grid.BoxMpc * Mpc / float64(c.Grid.N)
}

func (c *Config) Params() asora.Params {
	p := asora.DefaultParams(c.Grid.N, c.Dr())
	if c.Raytrace.Radius > 0 {
		p.R = c.Raytrace.Radius
	}
	p.BatchWidth = c.Raytrace.BatchWidth
	p.Periodic = c.Grid.Periodic
	p.MaxColDens = c.Raytrace.MaxColDens
	p.HeliumMassFraction = c.Raytrace.HeliumFraction
	return p
}

func (c *Config) CrossSections() raytrace.CrossSections {
	return raytrace.CrossSections{
		HI:      slices.Clone(c.Spectrum.SigmaHI),
		HeI:     slices.Clone(c.Spectrum.SigmaHeI),
		HeII:    slices.Clone(c.Spectrum.SigmaHeII),
		NumBin1: c.Spectrum.NumBin1,
		NumBin2: c.Spectrum.NumBin2,
		NumBin3: c.Spectrum.NumBin3,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Spectrum.SigmaHI = slices.Clone(c.Spectrum.SigmaHI)
	out.Spectrum.SigmaHeI = slices.Clone(c.Spectrum.SigmaHeI)
	out.Spectrum.SigmaHeII = slices.Clone(c.Spectrum.SigmaHeII)
	out.Sources.Inline = slices.Clone(c.Sources.Inline)
	return &out
}
