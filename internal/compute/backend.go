package compute

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

// ErrPanic wraps a panic recovered inside a work-group or worker.
var ErrPanic = errors.New("compute: panic")

// GroupFunc is the body of one work-group.
type GroupFunc func(ctx context.Context, group int, team *Team) error

type Backend interface {
	Name() string
	Available() bool
	// Workers is the team size handed to each work-group.
	Workers() int
	// Concurrent reports whether launching groups work-groups may run
	// more than one worker at a time.
	Concurrent(groups int) bool
	// Launch runs fn for every group. Calls on one backend are serialised,
	// so several contexts may share it.
	Launch(ctx context.Context, groups int, fn GroupFunc) error
	Cleanup()
}

// Select returns the backend registered under name. "auto" picks cpu when
// more than one CPU is available.
func Select(name string, workers int) (Backend, error) {
	switch name {
	case "", "auto":
		if runtime.NumCPU() > 1 {
			return NewCPUBackend(workers), nil
		}
		return NewSerialBackend(), nil
	case "cpu":
		return NewCPUBackend(workers), nil
	case "serial":
		return NewSerialBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
}

// Names lists the selectable backends.
func Names() []string {
	return []string{"auto", "cpu", "serial"}
}
