package backend

import (
	"context"
	"time"

	"budgettracker/internal/cache"
	"budgettracker/internal/palette"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is the color map store plus its optional cleanup.
type BackendResult struct {
	Store   palette.Store
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc

	// Expirers are the caches a janitor should sweep.
	Expirers []cache.Expirer
}

// Factory creates color map stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific
	SeedFile string

	// Cache in front of either backend; size 0 disables it.
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
