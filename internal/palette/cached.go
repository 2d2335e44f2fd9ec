package palette

import (
	"context"

	"budgettracker/internal/cache"
)

// CachedStore serves repeated lookups from a cache in front of another Store.
// Assignments never change, so a cached color is always current.
type CachedStore struct {
	next  Store
	cache cache.Cache[string]
}

func NewCachedStore(next Store, c cache.Cache[string]) *CachedStore {
	return &CachedStore{next: next, cache: c}
}

func (s *CachedStore) Assign(ctx context.Context, label string, pick func(size int) string) (string, error) {
	if color, ok := s.cache.Get(label); ok {
		return color, nil
	}
	color, err := s.next.Assign(ctx, label, pick)
	if err != nil {
		return "", err
	}
	s.cache.Set(label, color)
	return color, nil
}

// List delegates to the wrapped store.
func (s *CachedStore) List(ctx context.Context) ([]Entry, error) {
	l, ok := s.next.(Lister)
	if !ok {
		return nil, nil
	}
	return l.List(ctx)
}
