package compute

import (
	"context"
	"fmt"
	"sync"
)

// SerialBackend runs work-groups one after another on the calling goroutine.
type SerialBackend struct {
	mu   sync.Mutex
	team *Team
}

func NewSerialBackend() *SerialBackend {
	return &SerialBackend{team: NewTeam(1)}
}

func (s *SerialBackend) Name() string        { return "serial" }
func (s *SerialBackend) Available() bool     { return true }
func (s *SerialBackend) Workers() int        { return 1 }
func (s *SerialBackend) Concurrent(int) bool { return false }
func (s *SerialBackend) Cleanup()            {}

func (s *SerialBackend) Launch(ctx context.Context, groups int, fn GroupFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < groups; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.run(ctx, i, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *SerialBackend) run(ctx context.Context, group int, fn GroupFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("work-group %d: %w: %v", group, ErrPanic, r)
		}
	}()
	return fn(ctx, group, s.team)
}
