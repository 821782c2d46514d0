package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls int
	boom := errors.New("boom")

	d.Subscribe(EventPasswordResetRequested, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventPasswordResetRequested, func(context.Context, Event) error {
		calls++
		return nil
	})
	d.Subscribe(EventPasswordResetCompleted, func(context.Context, Event) error {
		t.Fatalf("handler for another type invoked")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventPasswordResetRequested})
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error to surface, got %v", err)
	}
}
