package asora

import (
	"log/slog"
	"sync"

	"github.com/san-kum/asora/internal/compute"
	"github.com/san-kum/asora/internal/grid"
	"github.com/san-kum/asora/internal/raytrace"
)

// Context is the reusable raytracing state of one mesh.
type Context struct {
	mu sync.Mutex

	params      Params
	backend     compute.Backend
	ownsBackend bool
	caps        compute.Capabilities
	logger      *slog.Logger

	observers []Observer

	scratch []raytrace.Scratch
	out     raytrace.Outputs

	closed bool
	valid  bool
}

type Option func(*Context)

// WithBackend runs work-groups on b. The caller keeps ownership of b.
func WithBackend(b compute.Backend) Option {
	return func(c *Context) {
		c.backend = b
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

func WithObserver(o Observer) Option {
	return func(c *Context) {
		c.observers = append(c.observers, o)
	}
}

// Open validates p and allocates the output grids and one scratch buffer per
// batch slot.
func Open(p Params, opts ...Option) (*Context, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := &Context{params: p}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.backend == nil {
		b, err := compute.Select("auto", 0)
		if err != nil {
			return nil, err
		}
		c.backend = b
		c.ownsBackend = true
	}

	cells := p.N * p.N * p.N
	for _, s := range raytrace.AllSpecies {
		c.out.ColDens[s] = make([]float64, cells)
		c.out.PhiIon[s] = make([]float64, cells)
		c.out.PhiHeat[s] = make([]float64, cells)
	}
	c.scratch = make([]raytrace.Scratch, p.BatchWidth)
	for i := range c.scratch {
		c.scratch[i] = raytrace.NewScratch(cells)
	}

	c.caps = compute.Probe(c.backend, p.BatchWidth)

	c.logger.Info("asora context opened",
		"n", p.N,
		"batch_width", p.BatchWidth,
		"q_max", p.QMax(),
		"periodic", p.Periodic,
		"backend", c.caps.Backend,
		"add", c.caps.AddName,
	)
	return c, nil
}

func (c *Context) Params() Params {
	return c.params
}

func (c *Context) Capabilities() compute.Capabilities {
	return c.caps
}

// Close releases every buffer. Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.valid = false
	c.scratch = nil
	c.out = raytrace.Outputs{}
	if c.ownsBackend {
		c.backend.Cleanup()
	}
	c.logger.Debug("asora context closed")
	return nil
}

// Results copies the outputs of the last successful call into dst,
// allocating any nil grid.
func (c *Context) Results(dst *Results) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.valid {
		return ErrNoResults
	}
	n := c.params.N
	copyInto := func(dst **grid.Grid, src []float64) {
		if *dst == nil || (*dst).N != n {
			*dst = grid.New(n)
		}
		copy((*dst).Data, src)
	}
	for _, s := range raytrace.AllSpecies {
		copyInto(&dst.ColDens[s], c.out.ColDens[s])
		copyInto(&dst.PhiIon[s], c.out.PhiIon[s])
		copyInto(&dst.PhiHeat[s], c.out.PhiHeat[s])
	}
	return nil
}

// Snapshot is Results into freshly allocated grids.
func (c *Context) Snapshot() (*Results, error) {
	res := &Results{}
	if err := c.Results(res); err != nil {
		return nil, err
	}
	return res, nil
}
