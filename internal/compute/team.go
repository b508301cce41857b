package compute

import (
	"fmt"
	"sync"
)

// inlineBelow is the shell size under which a team runs items on the calling
// goroutine; the hand-off to workers costs more than the work.
const inlineBelow = 32

type job struct {
	n      int
	offset int
	stride int
	fn     func(item int)
}

// Team is a fixed set of persistent workers. Item s of a Run goes to worker
// s mod workers, so consecutive items are spread over the team.
type Team struct {
	workers int

	jobs chan job
	done chan error
	stop chan struct{}
	wg   sync.WaitGroup

	running bool
}

func NewTeam(workers int) *Team {
	if workers < 1 {
		workers = 1
	}
	return &Team{workers: workers}
}

func (t *Team) start() {
	if t.running {
		return
	}
	t.jobs = make(chan job, t.workers)
	t.done = make(chan error, t.workers)
	t.stop = make(chan struct{})
	t.running = true

	for w := 0; w < t.workers; w++ {
		t.wg.Add(1)
		go t.worker()
	}
}

func (t *Team) worker() {
	defer t.wg.Done()
	for {
		select {
		case <-t.stop:
			return
		case j := <-t.jobs:
			t.done <- runStrided(j)
		}
	}
}

// Run calls fn for every item in [0, n) and returns after all calls have
// completed. fn must be safe for concurrent use. A panic in fn is returned
// as an error once the remaining items have finished.
func (t *Team) Run(n int, fn func(item int)) error {
	if n <= 0 {
		return nil
	}
	if t.workers == 1 || n < inlineBelow {
		return runStrided(job{n: n, offset: 0, stride: 1, fn: fn})
	}

	t.start()

	active := min(t.workers, n)
	for w := 0; w < active; w++ {
		t.jobs <- job{n: n, offset: w, stride: active, fn: fn}
	}

	var firstErr error
	for w := 0; w < active; w++ {
		if err := <-t.done; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close stops the workers. The team restarts them if Run is called again.
func (t *Team) Close() {
	if !t.running {
		return
	}
	close(t.stop)
	t.wg.Wait()
	t.running = false
}

func runStrided(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker: %w: %v", ErrPanic, r)
		}
	}()
	for s := j.offset; s < j.n; s += j.stride {
		j.fn(s)
	}
	return nil
}
