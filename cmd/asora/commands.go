package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/san-kum/asora/internal/analysis"
	"github.com/san-kum/asora/internal/asora"
	"github.com/san-kum/asora/internal/compute"
	"github.com/san-kum/asora/internal/config"
	"github.com/san-kum/asora/internal/export"
	"github.com/san-kum/asora/internal/lookup"
	"github.com/san-kum/asora/internal/raytrace"
	"github.com/san-kum/asora/internal/scenario"
	"github.com/san-kum/asora/internal/storage"
	"github.com/san-kum/asora/internal/tui"
	"github.com/san-kum/asora/internal/viz"
)

// resolveConfig starts from the defaults, applies the preset, then the
// config file. The returned name labels the run.
func resolveConfig(presetName, path string) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "run"

	if presetName != "" {
		group, item, ok := strings.Cut(presetName, "/")
		if !ok {
			return nil, "", fmt.Errorf("preset must be group/name, got %q", presetName)
		}
		cfg = config.GetPreset(group, item)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available in %s: %v)", presetName, group, config.ListPresets(group))
		}
		name = group + "-" + item
	}

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cfg, name, nil
}

// applyRunFlags lets explicitly set flags override the configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("n") {
		cfg.Grid.N = gridN
	}
	if flags.Changed("box") {
		cfg.Grid.BoxMpc = boxMpc
	}
	if flags.Changed("periodic") {
		cfg.Grid.Periodic = periodic
	}
	if flags.Changed("radius") {
		cfg.Raytrace.Radius = radius
	}
	if flags.Changed("batch") {
		cfg.Raytrace.BatchWidth = batchWidth
	}
	if flags.Changed("workers") {
		cfg.Raytrace.Workers = workers
	}
	if flags.Changed("backend") {
		cfg.Raytrace.Backend = backend
	}
	if flags.Changed("sources") {
		cfg.Sources.Random = numSources
	}
	if flags.Changed("seed") {
		cfg.Sources.Seed = seed
		cfg.Density.Seed = seed
	}
}

func runRaytrace(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(preset, configFile)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	sc, err := scenario.Build(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		res   *asora.Results
		stats asora.Stats
	)
	if useTUI {
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		title := fmt.Sprintf("asora  %s  n=%d", name, cfg.Grid.N)
		batches := sc.Params.Batches(len(sc.Inputs.Sources))
		stats, err = tui.RunProgress(ctx, title, batches, len(sc.Inputs.Sources), func(ctx context.Context, obs asora.Observer) (asora.Stats, error) {
			var s asora.Stats
			var runErr error
			res, s, runErr = sc.Run(ctx, asora.WithLogger(quiet), asora.WithObserver(obs))
			return s, runErr
		})
	} else {
		fmt.Printf("tracing %d sources on %d³ cells...\n", len(sc.Inputs.Sources), cfg.Grid.N)
		res, stats, err = sc.Run(ctx, asora.WithLogger(slog.Default()))
	}
	if err != nil {
		return err
	}

	budget := analysis.PhotonBudget(res, sc.Inputs, sc.Params)
	run := storage.Run{
		Meta: storage.RunMetadata{
			Name:       name,
			N:          cfg.Grid.N,
			BoxMpc:     cfg.Grid.BoxMpc,
			Dr:         sc.Params.Dr,
			Periodic:   sc.Params.Periodic,
			Radius:     sc.Params.R,
			QMax:       stats.QMax,
			BatchWidth: sc.Params.BatchWidth,
			Backend:    stats.Backend,
			AddPath:    stats.Add,
			Sources:    stats.Sources,
			Batches:    stats.Batches,
			ElapsedMs:  float64(stats.Elapsed.Microseconds()) / 1000,
			Emitted:    budget.Emitted,
			Absorbed:   budget.Absorbed,
			Fraction:   budget.Fraction,
		},
		Config:  cfg,
		Sources: sc.Inputs.Sources,
		Summary: storage.Summarize(res),
	}
	if !noGrids {
		run.Results = res
	}

	st := storage.New(dataDir)
	runID, err := st.Save(run)
	if err != nil {
		return err
	}

	fmt.Println(viz.Panel("run "+runID, viz.KeyValues([]viz.KV{
		{Key: "sources", Value: fmt.Sprintf("%d in %d batches of %d", stats.Sources, stats.Batches, sc.Params.BatchWidth)},
		{Key: "q_max", Value: fmt.Sprint(stats.QMax)},
		{Key: "backend", Value: fmt.Sprintf("%s, %s add", stats.Backend, stats.Add)},
		{Key: "elapsed", Value: stats.Elapsed.Round(time.Millisecond).String()},
		{Key: "absorbed", Value: fmt.Sprintf("%.4f of %.3e photons/s", budget.Fraction, budget.Emitted)},
	})))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tN\tSOURCES\tBATCH\tBACKEND\tELAPSED\tABSORBED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%.1fms\t%.4f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.N,
			run.Sources,
			run.BatchWidth,
			run.Backend,
			run.ElapsedMs,
			run.Fraction,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	summary, err := st.LoadSummary(runID)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if asJSON {
		return storage.ExportJSON(os.Stdout, meta, summary)
	}

	fmt.Println(viz.Panel(meta.ID, viz.KeyValues([]viz.KV{
		{Key: "created", Value: meta.Timestamp.Format(time.RFC3339)},
		{Key: "mesh", Value: fmt.Sprintf("%d³ cells, %.2f Mpc, periodic=%v", meta.N, meta.BoxMpc, meta.Periodic)},
		{Key: "radius", Value: fmt.Sprintf("%.1f cells (q_max %d)", meta.Radius, meta.QMax)},
		{Key: "sources", Value: fmt.Sprintf("%d in %d batches of %d", meta.Sources, meta.Batches, meta.BatchWidth)},
		{Key: "backend", Value: fmt.Sprintf("%s, %s add", meta.Backend, meta.AddPath)},
		{Key: "elapsed", Value: fmt.Sprintf("%.1fms", meta.ElapsedMs)},
		{Key: "absorbed", Value: fmt.Sprintf("%.3e of %.3e photons/s (%.4f)", meta.Absorbed, meta.Emitted, meta.Fraction)},
	})))

	if len(summary) == 0 {
		return nil
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tMEAN\tSTD\tMIN\tMAX\tNONZERO")
	for _, row := range summary {
		fmt.Fprintf(w, "%s\t%.4e\t%.4e\t%.4e\t%.4e\t%d\n", row.Grid, row.Mean, row.Std, row.Min, row.Max, row.NonZero)
	}
	return w.Flush()
}

func profileRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	sources, err := st.LoadSources(runID)
	if err != nil {
		return err
	}
	if sourceIndex < 0 || sourceIndex >= len(sources) {
		return fmt.Errorf("source index %d out of range (run has %d sources)", sourceIndex, len(sources))
	}
	g, err := st.LoadGrid(runID, gridName)
	if err != nil {
		return err
	}

	center := sources[sourceIndex].Pos
	r := maxRadius
	if r <= 0 {
		r = float64(meta.N) / 2
	}
	profile := analysis.RadialProfile(g, center, r, meta.Periodic)

	caption := fmt.Sprintf("%s around source %d at %v (log10)", gridName, sourceIndex, center)
	if linearScale {
		caption = fmt.Sprintf("%s around source %d at %v", gridName, sourceIndex, center)
	}
	fmt.Println(viz.ProfilePlot(analysis.Means(profile), caption, 80, 12, !linearScale))

	if showMap {
		level := analysis.Summarize(g).Max * math.Pow(10, -mapDecades)
		fmt.Println()
		fmt.Println(viz.Subtle.Render(fmt.Sprintf("z = %d, cells above %.3e", center[2], level)))
		fmt.Print(viz.SliceMap(g, 2, center[2], level).String())
	}

	if profileCSV != "" {
		f, err := os.Create(profileCSV)
		if err != nil {
			return err
		}
		if err := gocsv.MarshalFile(&profile, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("profile written to %s\n", profileCSV)
	}

	if profileSVG != "" {
		profilePath := profileSVG + "_profile.svg"
		if err := export.WriteFile(profilePath, export.ProfileSVG(profile, 640, 320, !linearScale, "#00ff00")); err != nil {
			return err
		}
		slicePath := profileSVG + "_slice.svg"
		if err := export.WriteFile(slicePath, export.SliceSVG(g, 2, center[2], 8, mapDecades)); err != nil {
			return err
		}
		fmt.Printf("svg written to %s and %s\n", profilePath, slicePath)
	}
	return nil
}

func diffRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	a, err := st.LoadResults(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	b, err := st.LoadResults(args[1])
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	ga, gb := storage.Grids(a), storage.Grids(b)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tMAX_REL_DIFF")
	var failed []string
	for _, sp := range raytrace.AllSpecies {
		for _, q := range storage.Quantities {
			name := storage.GridName(q, sp)
			d, err := analysis.MaxRelDiff(ga[name], gb[name])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%.3e\n", name, d)
			if diffTol > 0 && d > diffTol {
				failed = append(failed, name)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("runs differ beyond %g in %s", diffTol, strings.Join(failed, ", "))
	}
	return nil
}

func benchRaytrace(cmd *cobra.Command, args []string) error {
	presetName := benchPreset
	if benchConfig != "" {
		presetName = ""
	}
	cfg, name, err := resolveConfig(presetName, benchConfig)
	if err != nil {
		return err
	}
	sc, err := scenario.Build(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s: %d sources on %d³ cells\n\n", name, len(sc.Inputs.Sources), cfg.Grid.N)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tWIDTH\tADD\tBATCHES\tBEST\tSOURCES/SEC")

	for _, bn := range benchBackends {
		for _, width := range benchWidths {
			best, stats, err := benchOne(sc, bn, cfg.Raytrace.Workers, width)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%v\t%.1f\n",
				stats.Backend, width, stats.Add, stats.Batches, best.Round(time.Microsecond),
				float64(stats.Sources)/best.Seconds())
		}
	}
	return w.Flush()
}

func benchOne(sc *scenario.Scenario, backendName string, nworkers, width int) (time.Duration, asora.Stats, error) {
	b, err := compute.Select(backendName, nworkers)
	if err != nil {
		return 0, asora.Stats{}, err
	}
	defer b.Cleanup()

	params := sc.Params
	params.BatchWidth = width
	c, err := asora.Open(params, asora.WithBackend(b), asora.WithLogger(slog.Default()))
	if err != nil {
		return 0, asora.Stats{}, err
	}
	defer c.Close()

	best := time.Duration(math.MaxInt64)
	var stats asora.Stats
	for i := 0; i < max(benchRepeat, 1); i++ {
		stats, err = c.DoAllSources(context.Background(), sc.Inputs)
		if err != nil {
			return 0, stats, err
		}
		best = min(best, stats.Elapsed)
	}
	return best, stats, nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.ListGroups()
	if len(args) == 1 {
		groups = []string{args[0]}
	}
	for _, g := range groups {
		presets := config.ListPresets(g)
		if len(presets) == 0 {
			fmt.Printf("no presets in group: %s\n", g)
			continue
		}
		fmt.Printf("%s:\n", g)
		for _, p := range presets {
			cfg := config.GetPreset(g, p)
			fmt.Printf("  %-10s n=%-3d %s density, %s\n", p, cfg.Grid.N, cfg.Density.Kind, describeSources(cfg.Sources))
		}
	}
	return nil
}

func describeSources(s config.SourcesConfig) string {
	parts := []string{}
	if len(s.Inline) > 0 {
		parts = append(parts, fmt.Sprintf("%d fixed", len(s.Inline)))
	}
	if s.CSV != "" {
		parts = append(parts, "from "+s.CSV)
	}
	if s.Random > 0 {
		parts = append(parts, fmt.Sprintf("%d random", s.Random))
	}
	if len(parts) == 0 {
		return "no sources"
	}
	return strings.Join(parts, " + ") + " sources"
}

func writeTables(cmd *cobra.Command, args []string) error {
	if tableInspect != "" {
		t, err := lookup.LoadCSV(tableInspect)
		if err != nil {
			return err
		}
		spec := t.Spec()
		fmt.Printf("%s: %d bins, %d samples, log10 tau from %.3f step %.5f\n\n",
			tableInspect, spec.NumFreq, spec.NumTau, spec.MinLogTau, spec.DLogTau)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BIN\tTAU\tPHOTO_THICK\tHEAT_THICK")
		for f := 0; f < spec.NumFreq; f++ {
			for _, idx := range []int{0, spec.NumTau / 2, spec.NumTau} {
				fmt.Fprintf(w, "%d\t%.3e\t%.4e\t%.4e\n", f, t.Tau(idx),
					t.Value(lookup.PhotoThick, f, idx), t.Value(lookup.HeatThick, f, idx))
			}
		}
		return w.Flush()
	}

	out := "grey_table.csv"
	if len(args) == 1 {
		out = args[0]
	}
	t, err := lookup.Grey(lookup.DefaultSpec(tableBins), tableHeat)
	if err != nil {
		return err
	}
	if err := lookup.SaveCSV(out, t); err != nil {
		return err
	}
	fmt.Printf("grey table with %d bins written to %s\n", tableBins, out)
	return nil
}
