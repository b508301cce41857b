package asora_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/asora/internal/asora"
	"github.com/san-kum/asora/internal/compute"
	"github.com/san-kum/asora/internal/grid"
	"github.com/san-kum/asora/internal/lookup"
	"github.com/san-kum/asora/internal/raytrace"
)

const meshN = 8

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testInputs(sources ...raytrace.Source) asora.Inputs {
	table, err := lookup.Grey(lookup.DefaultSpec(3), 1e-11)
	Expect(err).NotTo(HaveOccurred())

	density := grid.Filled(meshN, 1e-4)
	// a denser slab across x = 5 so sources see different media
	for j := 0; j < meshN; j++ {
		for k := 0; k < meshN; k++ {
			density.Set(5, j, k, 1e-2)
		}
	}

	return asora.Inputs{
		Density: density,
		XHII:    grid.Filled(meshN, 0.2),
		XHeII:   grid.Filled(meshN, 0.1),
		XHeIII:  grid.Filled(meshN, 0.01),
		Sources: sources,
		Sigma: raytrace.CrossSections{
			HI:      []float64{6.30e-18, 1.20e-18, 2.0e-19},
			HeI:     []float64{0, 7.43e-18, 1.1e-18},
			HeII:    []float64{0, 0, 1.58e-18},
			NumBin1: 1,
			NumBin2: 1,
			NumBin3: 1,
		},
		Table: table,
	}
}

func someSources() []raytrace.Source {
	return []raytrace.Source{
		{Pos: [3]int{1, 1, 1}, Flux: 1e52},
		{Pos: [3]int{6, 2, 3}, Flux: 3e51},
		{Pos: [3]int{4, 7, 0}, Flux: 5e52},
		{Pos: [3]int{0, 5, 6}, Flux: 2e50},
		{Pos: [3]int{7, 7, 7}, Flux: 8e51},
	}
}

func openContext(width int, opts ...asora.Option) *asora.Context {
	p := asora.DefaultParams(meshN, 3e21)
	p.BatchWidth = width
	ctx, err := asora.Open(p, append([]asora.Option{asora.WithLogger(quiet)}, opts...)...)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(ctx.Close)
	return ctx
}

func trace(c *asora.Context, in asora.Inputs) *asora.Results {
	_, err := c.DoAllSources(context.Background(), in)
	Expect(err).NotTo(HaveOccurred())
	res, err := c.Snapshot()
	Expect(err).NotTo(HaveOccurred())
	return res
}

func grids(r *asora.Results) []*grid.Grid {
	var out []*grid.Grid
	for _, s := range raytrace.AllSpecies {
		out = append(out, r.ColDens[s], r.PhiIon[s], r.PhiHeat[s])
	}
	return out
}

// maxRelDiff compares every output grid cell by cell.
func maxRelDiff(a, b *asora.Results) float64 {
	ga, gb := grids(a), grids(b)
	worst := 0.0
	for i := range ga {
		for c := range ga[i].Data {
			x, y := ga[i].Data[c], gb[i].Data[c]
			scale := math.Max(math.Abs(x), math.Abs(y))
			if scale == 0 {
				continue
			}
			worst = math.Max(worst, math.Abs(x-y)/scale)
		}
	}
	return worst
}

type panickyBackend struct {
	*compute.SerialBackend
}

func (p panickyBackend) Launch(ctx context.Context, groups int, fn compute.GroupFunc) error {
	return p.SerialBackend.Launch(ctx, groups, func(ctx context.Context, g int, team *compute.Team) error {
		panic("device lost")
	})
}

var _ = Describe("Context", func() {
	It("produces the same grids for every batch width and backend", func() {
		in := testInputs(someSources()...)
		ref := trace(openContext(1, asora.WithBackend(compute.NewSerialBackend())), in)

		for _, width := range []int{1, 2, 3, 5, 8} {
			cpu := compute.NewCPUBackend(4)
			DeferCleanup(cpu.Cleanup)
			got := trace(openContext(width, asora.WithBackend(cpu)), in)
			Expect(maxRelDiff(ref, got)).To(BeNumerically("<", 1e-12), "width %d", width)
		}
	})

	It("sums the contributions of independent sources", func() {
		all := someSources()
		c := openContext(2)

		sum := grids(trace(c, testInputs(all...)))
		parts := make([][]*grid.Grid, len(all))
		for i, s := range all {
			parts[i] = grids(trace(c, testInputs(s)))
		}

		for gi, g := range sum {
			for cell, v := range g.Data {
				want := 0.0
				for _, p := range parts {
					want += p[gi].Data[cell]
				}
				Expect(v).To(BeNumerically("~", want, 1e-9*math.Abs(want)))
			}
		}
	})

	It("deposits rates at every source cell", func() {
		srcs := someSources()
		res := trace(openContext(3), testInputs(srcs...))
		for _, s := range srcs {
			Expect(res.PhiIon[raytrace.HI].At(s.Pos[0], s.Pos[1], s.Pos[2])).To(BeNumerically(">", 0))
			Expect(res.PhiHeat[raytrace.HI].At(s.Pos[0], s.Pos[1], s.Pos[2])).To(BeNumerically(">", 0))
		}
		for _, g := range grids(res) {
			Expect(g.IsFinite()).To(BeTrue())
		}
	})

	It("leaves zeroed grids when there are no sources", func() {
		c := openContext(4)
		_ = trace(c, testInputs(someSources()...))

		stats, err := c.DoAllSources(context.Background(), testInputs())
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Batches).To(Equal(0))

		res, err := c.Snapshot()
		Expect(err).NotTo(HaveOccurred())
		for _, g := range grids(res) {
			Expect(g.Data).To(HaveEach(0.0))
		}
	})

	It("reports each batch to observers", func() {
		var events []asora.BatchEvent
		c := openContext(2, asora.WithObserver(asora.ObserverFunc(func(ev asora.BatchEvent) {
			events = append(events, ev)
		})))

		stats, err := c.DoAllSources(context.Background(), testInputs(someSources()...))
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Sources).To(Equal(5))
		Expect(stats.Batches).To(Equal(3))

		Expect(events).To(HaveLen(3))
		Expect([]int{events[0].Count, events[1].Count, events[2].Count}).To(Equal([]int{2, 2, 1}))
		Expect(events[2].First).To(Equal(4))
		Expect(events[2].Batches).To(Equal(3))
	})

	Describe("failures", func() {
		It("rejects mismatched grids", func() {
			in := testInputs(someSources()...)
			in.XHeII = grid.New(meshN + 1)

			_, err := openContext(2).DoAllSources(context.Background(), in)
			var le *asora.LaunchError
			Expect(errors.As(err, &le)).To(BeTrue())
			Expect(le.Code).To(Equal(asora.CodeInvalid))
			Expect(err).To(MatchError(asora.ErrDimensionMismatch))
		})

		It("rejects a table with the wrong number of bins", func() {
			in := testInputs(someSources()...)
			table, err := lookup.Grey(lookup.DefaultSpec(2), 1e-11)
			Expect(err).NotTo(HaveOccurred())
			in.Table = table

			_, err = openContext(2).DoAllSources(context.Background(), in)
			Expect(err).To(MatchError(asora.ErrDimensionMismatch))
		})

		It("rejects sources outside the mesh", func() {
			in := testInputs(raytrace.Source{Pos: [3]int{0, meshN, 0}, Flux: 1})
			_, err := openContext(2).DoAllSources(context.Background(), in)
			Expect(err).To(MatchError(asora.ErrInvalidSource))
		})

		It("stops between batches when canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			c := openContext(2, asora.WithObserver(asora.ObserverFunc(func(ev asora.BatchEvent) {
				if ev.Batch == 0 {
					cancel()
				}
			})))
			_, err := c.DoAllSources(ctx, testInputs(someSources()...))

			var le *asora.LaunchError
			Expect(errors.As(err, &le)).To(BeTrue())
			Expect(le.Code).To(Equal(asora.CodeCanceled))
			Expect(le.Batch).To(Equal(1))
			Expect(err).To(MatchError(context.Canceled))

			_, err = c.Snapshot()
			Expect(err).To(MatchError(asora.ErrNoResults))
		})

		It("surfaces a work-group panic as a launch error", func() {
			c := openContext(2, asora.WithBackend(panickyBackend{compute.NewSerialBackend()}))
			_, err := c.DoAllSources(context.Background(), testInputs(someSources()...))

			var le *asora.LaunchError
			Expect(errors.As(err, &le)).To(BeTrue())
			Expect(le.Code).To(Equal(asora.CodePanic))
			Expect(le.Batch).To(Equal(0))
			Expect(err).To(MatchError(ContainSubstring("device lost")))
		})

		It("refuses results before the first call", func() {
			_, err := openContext(1).Snapshot()
			Expect(err).To(MatchError(asora.ErrNoResults))
		})

		It("refuses use after close", func() {
			c := openContext(1)
			Expect(c.Close()).To(Succeed())
			Expect(c.Close()).To(Succeed())

			_, err := c.DoAllSources(context.Background(), testInputs())
			Expect(err).To(MatchError(asora.ErrClosed))
			_, err = c.Snapshot()
			Expect(err).To(MatchError(asora.ErrClosed))
		})
	})

	It("rejects invalid parameters at open", func() {
		p := asora.DefaultParams(meshN, 3e21)
		p.BatchWidth = 0
		_, err := asora.Open(p, asora.WithLogger(quiet))
		Expect(err).To(MatchError(asora.ErrInvalidParams))
	})
})
