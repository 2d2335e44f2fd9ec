// Package memory is an in-process color map store.
package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"budgettracker/internal/palette"
)

type Store struct {
	mu      sync.Mutex
	index   map[string]int
	entries []palette.Entry
}

func New(seed []palette.Entry) *Store {
	s := &Store{index: make(map[string]int, len(seed))}
	for _, e := range dedupe(seed) {
		s.index[e.Label] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s
}

// NewFromFile seeds the store from a file of "label=color" lines. A missing
// file yields an empty store; any other read failure is returned.
func NewFromFile(path string) (*Store, error) {
	seed, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return New(seed), nil
}

// Assign returns the stored color for label or records pick(size).
func (s *Store) Assign(ctx context.Context, label string, pick func(size int) string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[label]; ok {
		return s.entries[i].Color, nil
	}
	color := pick(len(s.entries))
	s.index[label] = len(s.entries)
	s.entries = append(s.entries, palette.Entry{Label: label, Color: color})
	return color, nil
}

// List returns assignments in insertion order.
func (s *Store) List(_ context.Context) ([]palette.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]palette.Entry(nil), s.entries...), nil
}

func readLines(path string) ([]palette.Entry, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	var out []palette.Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		label, color, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out = append(out, palette.Entry{
			Label: strings.ToLower(strings.TrimSpace(label)),
			Color: strings.TrimSpace(color),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return out, nil
}

// dedupe keeps the first color seen for each label.
func dedupe(in []palette.Entry) []palette.Entry {
	seen := map[string]struct{}{}
	out := make([]palette.Entry, 0, len(in))
	for _, e := range in {
		if e.Label == "" || e.Color == "" {
			continue
		}
		if _, ok := seen[e.Label]; ok {
			continue
		}
		seen[e.Label] = struct{}{}
		out = append(out, e)
	}
	return out
}
