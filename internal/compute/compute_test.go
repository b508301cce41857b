package compute

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestTeamRunVisitsEveryItemOnce(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		team := NewTeam(workers)
		for _, n := range []int{0, 1, 5, 31, 32, 100, 1001} {
			counts := make([]int32, n)
			err := team.Run(n, func(item int) {
				atomic.AddInt32(&counts[item], 1)
			})
			if err != nil {
				t.Fatalf("workers=%d n=%d: %v", workers, n, err)
			}
			for i, c := range counts {
				if c != 1 {
					t.Fatalf("workers=%d n=%d: item %d visited %d times", workers, n, i, c)
				}
			}
		}
		team.Close()
	}
}

func TestTeamRunIsBarrier(t *testing.T) {
	team := NewTeam(4)
	defer team.Close()

	var done atomic.Int64
	for round := 1; round <= 20; round++ {
		if err := team.Run(200, func(int) { done.Add(1) }); err != nil {
			t.Fatal(err)
		}
		if got := done.Load(); got != int64(round*200) {
			t.Fatalf("round %d: Run returned with %d items done", round, got)
		}
	}
}

func TestTeamRunRecoversPanic(t *testing.T) {
	team := NewTeam(4)
	defer team.Close()

	err := team.Run(100, func(item int) {
		if item == 57 {
			panic("boom")
		}
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic error, got %v", err)
	}

	// team is still usable
	if err := team.Run(100, func(int) {}); err != nil {
		t.Fatalf("team unusable after panic: %v", err)
	}
}

func TestAddCASConcurrent(t *testing.T) {
	dst := make([]float64, 4)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				AddCAS(dst, i%4, 0.5)
			}
		}()
	}
	wg.Wait()

	for i, v := range dst {
		if v != 1000 {
			t.Errorf("dst[%d] = %v, want 1000", i, v)
		}
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		groups  int
		want    string
	}{
		{"serial", NewSerialBackend(), 4, "direct"},
		{"cpu single", NewCPUBackend(1), 1, "direct"},
		{"cpu groups", NewCPUBackend(1), 2, "cas"},
		{"cpu workers", NewCPUBackend(4), 1, "cas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Probe(tt.backend, tt.groups)
			if c.AddName != tt.want {
				t.Errorf("AddName = %s, want %s", c.AddName, tt.want)
			}
			if c.Add == nil {
				t.Error("Add not set")
			}
		})
	}
}

func TestLaunch(t *testing.T) {
	for _, b := range []Backend{NewCPUBackend(2), NewSerialBackend()} {
		t.Run(b.Name(), func(t *testing.T) {
			defer b.Cleanup()

			seen := make([]int32, 6)
			err := b.Launch(context.Background(), 6, func(ctx context.Context, g int, team *Team) error {
				atomic.AddInt32(&seen[g], 1)
				return team.Run(50, func(int) {})
			})
			if err != nil {
				t.Fatal(err)
			}
			for g, c := range seen {
				if c != 1 {
					t.Errorf("group %d ran %d times", g, c)
				}
			}
		})
	}
}

func TestConcurrentLaunchesShareBackend(t *testing.T) {
	for _, b := range []Backend{NewCPUBackend(3), NewSerialBackend()} {
		t.Run(b.Name(), func(t *testing.T) {
			defer b.Cleanup()

			var active atomic.Int32
			errs := make(chan error, 4)
			var wg sync.WaitGroup
			for c := 0; c < 4; c++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- b.Launch(context.Background(), 2, func(ctx context.Context, g int, team *Team) error {
						if n := active.Add(1); n > 2 {
							t.Errorf("%d work-groups active, want at most one launch", n)
						}
						defer active.Add(-1)

						var done atomic.Int64
						for round := 1; round <= 10; round++ {
							if err := team.Run(100, func(int) { done.Add(1) }); err != nil {
								return err
							}
							if got := done.Load(); got != int64(round*100) {
								t.Errorf("round %d: %d items done", round, got)
							}
						}
						return nil
					})
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				if err != nil {
					t.Fatal(err)
				}
			}
		})
	}
}

func TestLaunchPropagatesErrors(t *testing.T) {
	errBad := errors.New("bad group")
	for _, b := range []Backend{NewCPUBackend(2), NewSerialBackend()} {
		t.Run(b.Name(), func(t *testing.T) {
			defer b.Cleanup()

			err := b.Launch(context.Background(), 3, func(ctx context.Context, g int, team *Team) error {
				if g == 1 {
					return errBad
				}
				return nil
			})
			if !errors.Is(err, errBad) {
				t.Errorf("expected errBad, got %v", err)
			}

			err = b.Launch(context.Background(), 2, func(ctx context.Context, g int, team *Team) error {
				panic("kernel fault")
			})
			if err == nil || !strings.Contains(err.Error(), "kernel fault") {
				t.Errorf("expected panic error, got %v", err)
			}
			if !errors.Is(err, ErrPanic) {
				t.Errorf("expected ErrPanic, got %v", err)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	for _, name := range Names() {
		b, err := Select(name, 2)
		if err != nil {
			t.Errorf("Select(%s): %v", name, err)
			continue
		}
		if !b.Available() {
			t.Errorf("backend %s not available", name)
		}
	}
	if _, err := Select("opencl", 0); err == nil {
		t.Error("expected error for unknown backend")
	}
}
