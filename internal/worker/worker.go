package worker

import (
	"context"
	"sync"

	"github.com/spec-kit/storefront/internal/service"
)

// Background owns the jobs started alongside the HTTP server.
type Background struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start registers notification handlers and launches the reset token reaper.
// Either argument may be nil.
func Start(ctx context.Context, notifications *service.NotificationService, reaper *ResetTokenReaper) *Background {
	ctx, cancel := context.WithCancel(ctx)
	b := &Background{cancel: cancel}

	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if reaper != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			reaper.Run(ctx)
		}()
	}
	return b
}

// Stop cancels every job and waits for them to return.
func (b *Background) Stop() {
	if b == nil {
		return
	}
	b.cancel()
	b.wg.Wait()
}
