package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"budgettracker/internal/palette"
)

func pickFrom(shades ...string) func(int) string {
	return func(size int) string { return shades[size%len(shades)] }
}

func TestStoreAssignIsStable(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	pick := pickFrom("a", "b")

	first, err := s.Assign(ctx, "food", pick)
	if err != nil || first != "a" {
		t.Fatalf("food: got %q err=%v", first, err)
	}
	second, _ := s.Assign(ctx, "rent", pick)
	if second != "b" {
		t.Fatalf("rent: got %q", second)
	}
	again, _ := s.Assign(ctx, "food", pick)
	if again != first {
		t.Fatalf("food changed color: %q -> %q", first, again)
	}
	entries, _ := s.List(ctx)
	if len(entries) != 2 || entries[0].Label != "food" || entries[1].Label != "rent" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestStoreConcurrentAssign(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	pick := pickFrom("a", "b", "c")

	var wg sync.WaitGroup
	got := make([]string, 20)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = s.Assign(ctx, "shared", pick)
		}(i)
	}
	wg.Wait()
	for _, c := range got {
		if c != got[0] {
			t.Fatalf("label got two colors: %v", got)
		}
	}
	entries, _ := s.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
}

func TestNewFromFileSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.txt"))
	if err != nil || len(s.entries) != 0 {
		t.Fatalf("expected empty store when file missing, err %v", err)
	}

	path := filepath.Join(dir, "colors.txt")
	content := "# header\nFood = rgba(1, 2, 3, 0.40)\nfood=rgba(9, 9, 9, 1.00)\nbroken line\n\nrent=rgba(4, 5, 6, 0.70)\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	entries, _ := s.List(context.Background())
	want := []palette.Entry{
		{Label: "food", Color: "rgba(1, 2, 3, 0.40)"},
		{Label: "rent", Color: "rgba(4, 5, 6, 0.70)"},
	}
	if len(entries) != len(want) {
		t.Fatalf("unexpected entries: %v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d = %v, want %v", i, entries[i], want[i])
		}
	}
	// Seeded entries count toward the size used for new labels.
	c, _ := s.Assign(context.Background(), "transport", pickFrom("x", "y", "z"))
	if c != "z" {
		t.Fatalf("expected third shade for third label, got %q", c)
	}
}

func TestNewFromFileReportsUnreadableSeed(t *testing.T) {
	// A directory opens fine but fails on read.
	if _, err := NewFromFile(t.TempDir()); err == nil {
		t.Fatal("expected error for a seed path that cannot be read")
	}
}
