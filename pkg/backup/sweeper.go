package backup

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunRetentionLoop starts a background sweep that runs every period until
// ctx is cancelled, using an errgroup so the caller can wait for a clean
// shutdown and observe the first sweep error, if any.
func (m *Manager) RunRetentionLoop(ctx context.Context, period time.Duration) (stop func() error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if _, err := m.Sweep(gctx); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait
}
