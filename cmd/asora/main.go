package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir   string
	logFormat string
	logLevel  string

	// run
	configFile string
	preset     string
	gridN      int
	boxMpc     float64
	radius     float64
	batchWidth int
	workers    int
	backend    string
	numSources int
	seed       int64
	periodic   bool
	useTUI     bool
	noGrids    bool

	// show, profile
	asJSON      bool
	gridName    string
	sourceIndex int
	maxRadius   float64
	profileCSV  string
	profileSVG  string
	showMap     bool
	mapDecades  float64
	linearScale bool

	// diff
	diffTol float64

	// bench
	benchConfig   string
	benchPreset   string
	benchWidths   []int
	benchBackends []string
	benchRepeat   int

	// tables
	tableBins    int
	tableHeat    float64
	tableInspect string
)

// main registers the asora commands and executes the root command, exiting
// with status 1 if it returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "asora",
		Short:         "octahedral raytracing of ionizing sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".asora", "data directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text|json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "trace every source of a scenario and store the rates",
		Args:  cobra.NoArgs,
		RunE:  runRaytrace,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "preset as group/name, e.g. uniform/single")
	runCmd.Flags().IntVar(&gridN, "n", 32, "cells per axis")
	runCmd.Flags().Float64Var(&boxMpc, "box", 10, "box size in Mpc")
	runCmd.Flags().Float64Var(&radius, "radius", 0, "raytracing radius in cells (0: box size)")
	runCmd.Flags().IntVar(&batchWidth, "batch", 8, "sources traced concurrently")
	runCmd.Flags().IntVar(&workers, "workers", 0, "workers per source (0: all CPUs)")
	runCmd.Flags().StringVar(&backend, "backend", "auto", "compute backend (auto|cpu|serial)")
	runCmd.Flags().IntVar(&numSources, "sources", 1, "number of random sources")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for sources and density")
	runCmd.Flags().BoolVar(&periodic, "periodic", true, "periodic boundaries")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show batch progress")
	runCmd.Flags().BoolVar(&noGrids, "no-grids", false, "store summaries only")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and grid summaries",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	profileCmd := &cobra.Command{
		Use:   "profile [run_id]",
		Short: "radial profile of a grid around a source",
		Args:  cobra.ExactArgs(1),
		RunE:  profileRun,
	}
	profileCmd.Flags().StringVar(&gridName, "grid", "phi_ion_HI", "grid to profile")
	profileCmd.Flags().IntVar(&sourceIndex, "source", 0, "index of the source to center on")
	profileCmd.Flags().Float64Var(&maxRadius, "radius", 0, "profile radius in cells (0: half the box)")
	profileCmd.Flags().StringVar(&profileCSV, "csv", "", "also write the profile to this CSV file")
	profileCmd.Flags().StringVar(&profileSVG, "svg", "", "write the profile and slice as <prefix>_profile.svg and <prefix>_slice.svg")
	profileCmd.Flags().BoolVar(&showMap, "map", false, "draw the slice through the source")
	profileCmd.Flags().Float64Var(&mapDecades, "decades", 3, "map cells within this many decades of the maximum")
	profileCmd.Flags().BoolVar(&linearScale, "linear", false, "plot linear instead of log10 values")

	diffCmd := &cobra.Command{
		Use:   "diff [run_a] [run_b]",
		Short: "compare the stored grids of two runs",
		Args:  cobra.ExactArgs(2),
		RunE:  diffRuns,
	}
	diffCmd.Flags().Float64Var(&diffTol, "tol", 0, "fail when a grid differs by more than this relative amount (0: report only)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time a scenario across batch widths and backends",
		Args:  cobra.NoArgs,
		RunE:  benchRaytrace,
	}
	benchCmd.Flags().StringVar(&benchConfig, "config", "", "config file path (yaml)")
	benchCmd.Flags().StringVar(&benchPreset, "preset", "uniform/field", "preset as group/name")
	benchCmd.Flags().IntSliceVar(&benchWidths, "widths", []int{1, 2, 4, 8, 16}, "batch widths")
	benchCmd.Flags().StringSliceVar(&benchBackends, "backends", []string{"serial", "cpu"}, "backends")
	benchCmd.Flags().IntVar(&benchRepeat, "repeat", 1, "calls per combination")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	tablesCmd := &cobra.Command{
		Use:   "tables [out.csv]",
		Short: "write a grey rate table, or inspect one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeTables,
	}
	tablesCmd.Flags().IntVar(&tableBins, "bins", 3, "frequency bins")
	tablesCmd.Flags().Float64Var(&tableHeat, "heat", 1.6e-11, "heat per absorbed photon (erg)")
	tablesCmd.Flags().StringVar(&tableInspect, "inspect", "", "table CSV to inspect")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, profileCmd, diffCmd, benchCmd, presetsCmd, tablesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogger() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch logFormat {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q", logFormat)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
