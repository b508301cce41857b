package scenario

import (
	"context"
	"fmt"

	"github.com/san-kum/asora/internal/asora"
	"github.com/san-kum/asora/internal/compute"
	"github.com/san-kum/asora/internal/config"
	"github.com/san-kum/asora/internal/grid"
	"github.com/san-kum/asora/internal/lookup"
	"github.com/san-kum/asora/internal/raytrace"
)

// Scenario is a fully built call: parameters, inputs and the backend to run
// them on.
type Scenario struct {
	Params  asora.Params
	Inputs  asora.Inputs
	Backend string
	Workers int
}

// Build validates cfg and constructs every input it describes. Inline
// sources come first, then CSV sources, then random ones.
func Build(cfg *config.Config) (*Scenario, error) {
	return NewRegistry().Build(cfg)
}

func (r *Registry) Build(cfg *config.Config) (*Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.Grid.N

	density, err := r.GetDensity(cfg.Density.Kind)
	if err != nil {
		return nil, err
	}

	table, err := Table(cfg)
	if err != nil {
		return nil, err
	}

	sources := make([]raytrace.Source, 0, len(cfg.Sources.Inline)+cfg.Sources.Random)
	for _, s := range cfg.Sources.Inline {
		sources = append(sources, raytrace.Source{Pos: [3]int{s.X, s.Y, s.Z}, Flux: s.Flux})
	}
	if cfg.Sources.CSV != "" {
		fromFile, err := LoadSources(cfg.Sources.CSV)
		if err != nil {
			return nil, fmt.Errorf("loading sources: %w", err)
		}
		sources = append(sources, fromFile...)
	}
	sources = append(sources, RandomSources(n, cfg.Sources.Random, cfg.Sources.Flux, cfg.Sources.Seed)...)

	return &Scenario{
		Params: cfg.Params(),
		Inputs: asora.Inputs{
			Density: density(n, cfg.Density),
			XHII:    grid.Filled(n, cfg.Ionization.XHII),
			XHeII:   grid.Filled(n, cfg.Ionization.XHeII),
			XHeIII:  grid.Filled(n, cfg.Ionization.XHeIII),
			Sources: sources,
			Sigma:   cfg.CrossSections(),
			Table:   table,
		},
		Backend: cfg.Raytrace.Backend,
		Workers: cfg.Raytrace.Workers,
	}, nil
}

// Table builds or loads the rate table cfg names.
func Table(cfg *config.Config) (*lookup.Table, error) {
	numFreq := cfg.CrossSections().NumFreq()
	switch cfg.Tables.Kind {
	case "csv":
		t, err := lookup.LoadCSV(cfg.Tables.Path)
		if err != nil {
			return nil, fmt.Errorf("loading table: %w", err)
		}
		return t, nil
	default:
		spec := lookup.Spec{
			MinLogTau: cfg.Tables.MinLogTau,
			DLogTau:   cfg.Tables.DLogTau,
			NumTau:    cfg.Tables.NumTau,
			NumFreq:   numFreq,
		}
		return lookup.Grey(spec, cfg.Tables.HeatPerPhoton)
	}
}

// Run opens a context for the scenario, traces every source once and
// returns a copy of the outputs.
func (s *Scenario) Run(ctx context.Context, opts ...asora.Option) (*asora.Results, asora.Stats, error) {
	backend, err := compute.Select(s.Backend, s.Workers)
	if err != nil {
		return nil, asora.Stats{}, err
	}
	defer backend.Cleanup()

	c, err := asora.Open(s.Params, append([]asora.Option{asora.WithBackend(backend)}, opts...)...)
	if err != nil {
		return nil, asora.Stats{}, err
	}
	defer c.Close()

	stats, err := c.DoAllSources(ctx, s.Inputs)
	if err != nil {
		return nil, stats, err
	}
	res, err := c.Snapshot()
	return res, stats, err
}
