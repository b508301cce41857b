package compute

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CPUBackend runs every work-group of a launch on its own goroutine, each
// with a team of workers goroutines.
type CPUBackend struct {
	workers int

	// launch is held for a whole Launch: teams are reused across calls and
	// a Team runs one shell at a time.
	launch sync.Mutex

	mu    sync.Mutex
	teams []*Team
}

// NewCPUBackend creates a backend whose teams have the given size; zero or
// less means runtime.NumCPU().
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string    { return fmt.Sprintf("cpu (%d workers)", c.workers) }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Workers() int    { return c.workers }

func (c *CPUBackend) Concurrent(groups int) bool {
	return groups > 1 || c.workers > 1
}

// Launch blocks until every group has returned. The first error cancels the
// context passed to the remaining groups and is returned. Concurrent
// Launch calls run one after another.
func (c *CPUBackend) Launch(ctx context.Context, groups int, fn GroupFunc) error {
	c.launch.Lock()
	defer c.launch.Unlock()

	teams := c.acquire(groups)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < groups; i++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("work-group %d: %w: %v", i, ErrPanic, r)
				}
			}()
			return fn(gctx, i, teams[i])
		})
	}
	return g.Wait()
}

func (c *CPUBackend) acquire(groups int) []*Team {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.teams) < groups {
		c.teams = append(c.teams, NewTeam(c.workers))
	}
	return c.teams[:groups]
}

func (c *CPUBackend) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.teams {
		t.Close()
	}
	c.teams = nil
}
