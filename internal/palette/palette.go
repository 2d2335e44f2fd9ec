// Package palette assigns stable chart colors to labels.
//
// Assignment is append-only: the first time a label is seen it receives
// shades[size%len(shades)], where size is the number of labels already in the
// map, and keeps that color forever.
package palette

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrEmptyPalette = errors.New("palette has no shades")

// Store persists the label to color map.
type Store interface {
	// Assign returns the color stored for label. When label is absent it
	// calls pick with the current map size, stores the result and returns it.
	// Implementations must make lookup and insert atomic per label.
	Assign(ctx context.Context, label string, pick func(size int) string) (string, error)
}

// Entry is one persisted assignment.
type Entry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Lister is implemented by stores that can enumerate their assignments in
// insertion order.
type Lister interface {
	List(ctx context.Context) ([]Entry, error)
}

// RGB is a base color.
type RGB [3]int

// ParseRGB parses "r,g,b" with components in 0-255.
func ParseRGB(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("invalid rgb %q: want r,g,b", s)
	}
	var c RGB
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("invalid rgb component %q", p)
		}
		c[i] = v
	}
	return c, nil
}

// GenerateVibrantShades returns n rgba shades of base with alpha rising
// from 0.4 toward 1.
func GenerateVibrantShades(base RGB, n int) []string {
	if n <= 0 {
		return nil
	}
	step := 0.6 / float64(n)
	shades := make([]string, n)
	for i := range shades {
		alpha := strconv.FormatFloat(0.4+float64(i)*step, 'f', 2, 64)
		shades[i] = fmt.Sprintf("rgba(%d, %d, %d, %s)", base[0], base[1], base[2], alpha)
	}
	return shades
}

// Assigner maps labels to shades through a Store.
type Assigner struct {
	store  Store
	shades []string
}

func NewAssigner(store Store, shades []string) (*Assigner, error) {
	if len(shades) == 0 {
		return nil, ErrEmptyPalette
	}
	if store == nil {
		return nil, errors.New("palette store is nil")
	}
	return &Assigner{store: store, shades: append([]string(nil), shades...)}, nil
}

func (a *Assigner) pick(size int) string {
	return a.shades[size%len(a.shades)]
}

// Assign returns the color of every label, assigning new ones in order.
// Keys are the lowercased labels.
func (a *Assigner) Assign(ctx context.Context, labels []string) (map[string]string, error) {
	out := make(map[string]string, len(labels))
	for _, label := range labels {
		key := strings.ToLower(label)
		if _, ok := out[key]; ok {
			continue
		}
		color, err := a.store.Assign(ctx, key, a.pick)
		if err != nil {
			return nil, fmt.Errorf("assign color for %q: %w", key, err)
		}
		out[key] = color
	}
	return out, nil
}

// Colors is Assign returning colors aligned with labels.
func (a *Assigner) Colors(ctx context.Context, labels []string) ([]string, error) {
	m, err := a.Assign(ctx, labels)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(labels))
	for i, label := range labels {
		out[i] = m[strings.ToLower(label)]
	}
	return out, nil
}

// List returns the store's assignments when the store supports it.
func (a *Assigner) List(ctx context.Context) ([]Entry, error) {
	l, ok := a.store.(Lister)
	if !ok {
		return nil, errors.New("palette store cannot list assignments")
	}
	return l.List(ctx)
}
