// Package cache holds small in-process caches used in front of slower stores.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a string-keyed cache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Len() int
}

// Expirer is implemented by caches holding entries with a deadline.
type Expirer interface {
	Expire(now time.Time) int
}

// Janitor periodically drops expired entries from registered caches.
type Janitor struct {
	interval time.Duration
	caches   []Expirer
	logger   *slog.Logger
}

func NewJanitor(interval time.Duration, logger *slog.Logger, caches ...Expirer) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{interval: interval, caches: caches, logger: logger}
}

// Run sweeps until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	if j.interval <= 0 || len(j.caches) == 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.Expire(now)
			}
			if removed > 0 {
				j.logger.Debug("cache sweep", "removed", removed)
			}
		}
	}
}
