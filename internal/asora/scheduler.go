package asora

import (
	"context"
	"errors"
	"time"

	"github.com/san-kum/asora/internal/compute"
	"github.com/san-kum/asora/internal/raytrace"
)

// Stats summarizes one DoAllSources call.
type Stats struct {
	Sources int
	Batches int
	QMax    int
	Elapsed time.Duration

	Backend string
	// Add names the accumulation path chosen at Open.
	Add string
}

// Batches is the number of launches needed for n sources.
func (p Params) Batches(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + p.BatchWidth - 1) / p.BatchWidth
}

// DoAllSources computes column densities and photo-ionization and heating
// rates of every source in in.Sources. The output grids are zeroed once,
// then sources are traced in batches of BatchWidth. Cancellation of ctx is
// observed between batches.
func (c *Context) DoAllSources(ctx context.Context, in Inputs) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Stats{}, ErrClosed
	}
	c.valid = false

	if err := in.validate(c.params.N); err != nil {
		return Stats{}, &LaunchError{Op: "validate inputs", Batch: -1, Code: CodeInvalid, Err: err}
	}

	start := time.Now()
	for _, s := range raytrace.AllSpecies {
		clear(c.out.ColDens[s])
		clear(c.out.PhiIon[s])
		clear(c.out.PhiHeat[s])
	}

	pass := raytrace.NewPass(c.params.geometry(), in.Medium(c.params.HeliumMassFraction), in.Sigma, in.Table, c.out, c.caps.Add)
	stats := Stats{
		Sources: len(in.Sources),
		Batches: c.params.Batches(len(in.Sources)),
		QMax:    c.params.QMax(),
		Backend: c.caps.Backend,
		Add:     c.caps.AddName,
	}

	for b := 0; b < stats.Batches; b++ {
		if err := ctx.Err(); err != nil {
			return stats, &LaunchError{Op: "launch batch", Batch: b, Code: CodeCanceled, Err: err}
		}

		first := b * c.params.BatchWidth
		batch := in.Sources[first:min(first+c.params.BatchWidth, len(in.Sources))]
		for g := range batch {
			c.scratch[g].Zero()
		}

		t0 := time.Now()
		err := c.backend.Launch(ctx, len(batch), func(ctx context.Context, g int, team *compute.Team) error {
			return pass.Run(batch[g], c.scratch[g], team)
		})
		if err != nil {
			code := CodeKernel
			switch {
			case errors.Is(err, compute.ErrPanic):
				code = CodePanic
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				code = CodeCanceled
			}
			c.logger.Error("raytrace batch failed", "batch", b, "first_source", first, "error", err)
			return stats, &LaunchError{Op: "raytrace batch", Batch: b, Code: code, Err: err}
		}

		ev := BatchEvent{
			Batch:   b,
			Batches: stats.Batches,
			First:   first,
			Count:   len(batch),
			Elapsed: time.Since(t0),
		}
		c.logger.Debug("batch done", "batch", b, "of", stats.Batches, "sources", len(batch), "elapsed", ev.Elapsed)
		for _, o := range c.observers {
			o.OnBatch(ev)
		}
	}

	stats.Elapsed = time.Since(start)
	c.valid = true
	c.logger.Info("all sources traced",
		"sources", stats.Sources,
		"batches", stats.Batches,
		"q_max", stats.QMax,
		"elapsed", stats.Elapsed,
	)
	return stats, nil
}
