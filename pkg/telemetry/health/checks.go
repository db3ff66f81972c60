package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger is implemented by the snapshot cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheCheck reports the cache unhealthy when it cannot be reached.
func CacheCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("cache unreachable: %w", err)
		}
		return nil
	}
}

// FreshnessCheck reports stale data when no fetch cycle has succeeded within
// maxAge. Before the first success the exporter gets maxAge from started to
// complete one.
func FreshnessCheck(started time.Time, lastSuccess func() time.Time, maxAge time.Duration) CheckFunc {
	return freshnessCheck(started, lastSuccess, maxAge, time.Now)
}

func freshnessCheck(started time.Time, lastSuccess func() time.Time, maxAge time.Duration, now func() time.Time) CheckFunc {
	return func(ctx context.Context) error {
		if maxAge <= 0 {
			return nil
		}

		last := lastSuccess()
		if last.IsZero() {
			if waited := now().Sub(started); waited > maxAge {
				return fmt.Errorf("no successful fetch in %s since start", waited.Truncate(time.Second))
			}
			return nil
		}

		if age := now().Sub(last); age > maxAge {
			return fmt.Errorf("last successful fetch %s ago exceeds %s", age.Truncate(time.Second), maxAge)
		}
		return nil
	}
}
