package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Sweep(context.Context) (int64, error) {
	s.calls.Add(1)
	return 3, s.err
}

func TestRunOnce(t *testing.T) {
	sweeper := &countingSweeper{}
	reaper := NewResetTokenReaper(sweeper, time.Minute, nil, nil)
	if got := reaper.RunOnce(context.Background()); got != 3 {
		t.Fatalf("expected 3 removed, got %d", got)
	}

	sweeper.err = errors.New("db down")
	if got := reaper.RunOnce(context.Background()); got != 0 {
		t.Fatalf("failed sweep should report 0, got %d", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	sweeper := &countingSweeper{}
	reaper := NewResetTokenReaper(sweeper, 5*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("reaper did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("reaper did not stop after cancel")
	}
}
