package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T, path string) *ColorRepository {
	t.Helper()
	r, err := NewColorRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestColorRepositoryAssign(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t, filepath.Join(t.TempDir(), "colors.db"))
	pick := func(size int) string { return []string{"a", "b"}[size%2] }

	for _, tc := range []struct{ label, want string }{
		{"food", "a"},
		{"rent", "b"},
		{"travel", "a"},
		{"food", "a"},
	} {
		got, err := r.Assign(ctx, tc.label, pick)
		if err != nil {
			t.Fatalf("assign %s: %v", tc.label, err)
		}
		if got != tc.want {
			t.Fatalf("assign %s = %q, want %q", tc.label, got, tc.want)
		}
	}

	entries, err := r.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 || entries[0].Label != "food" || entries[2].Label != "travel" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestColorRepositoryPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "colors.db")

	r, err := NewColorRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := r.Assign(ctx, "food", func(int) string { return "first" }); err != nil {
		t.Fatalf("assign: %v", err)
	}
	r.Close()

	// Reopening runs migrations again and keeps existing rows.
	r2 := newTestRepo(t, path)
	got, err := r2.Assign(ctx, "food", func(int) string { return "second" })
	if err != nil || got != "first" {
		t.Fatalf("expected persisted color, got %q err=%v", got, err)
	}
	if err := r2.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
