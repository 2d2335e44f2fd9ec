package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// MaxMonthSpan caps every generated month sequence.
	MaxMonthSpan = 1200
)

var ErrMonthSpanExceeded = errors.New("month span exceeded")

// MonthKey identifies a calendar month. Its text form is "YYYY-MM".
type MonthKey struct {
	Year  int
	Month int // 1-12
}

// SpanError reports a month walk longer than MaxMonthSpan.
type SpanError struct {
	From, To MonthKey
	Months   int
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("month walk %s..%s covers %d months (max %d)", e.From, e.To, e.Months, MaxMonthSpan)
}

func (e *SpanError) Unwrap() error { return ErrMonthSpanExceeded }

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date.
func ParseDate(s string) (Date, error) {
	v := strings.TrimSpace(s)
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return Date{}, &ParseError{Field: "date", Value: s, Err: err}
	}
	return Date{Time: t}, nil
}

// NewMonthKey validates year and month.
func NewMonthKey(year, month int) (MonthKey, error) {
	if month < 1 || month > 12 {
		return MonthKey{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if year < 1 || year > 9999 {
		return MonthKey{}, fmt.Errorf("invalid year: %d", year)
	}
	return MonthKey{Year: year, Month: month}, nil
}

// ParseMonthKey parses "YYYY-MM".
func ParseMonthKey(s string) (MonthKey, error) {
	v := strings.TrimSpace(s)
	parts := strings.Split(v, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return MonthKey{}, &ParseError{Field: "month", Value: s}
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthKey{}, &ParseError{Field: "month", Value: s, Err: err}
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthKey{}, &ParseError{Field: "month", Value: s, Err: err}
	}
	mk, err := NewMonthKey(year, month)
	if err != nil {
		return MonthKey{}, &ParseError{Field: "month", Value: s, Err: err}
	}
	return mk, nil
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m MonthKey) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MonthKey) UnmarshalText(b []byte) error {
	v, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// index counts months since year 0.
func (m MonthKey) index() int {
	return m.Year*12 + (m.Month - 1)
}

func monthFromIndex(i int) MonthKey {
	return MonthKey{Year: i / 12, Month: i%12 + 1}
}

// AddMonths shifts the key by n calendar months (n may be negative).
func (m MonthKey) AddMonths(n int) MonthKey {
	return monthFromIndex(m.index() + n)
}

// Compare returns -1, 0 or 1.
func (m MonthKey) Compare(o MonthKey) int {
	switch a, b := m.index(), o.index(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (m MonthKey) Before(o MonthKey) bool { return m.Compare(o) < 0 }

func (m MonthKey) After(o MonthKey) bool { return m.Compare(o) > 0 }

// MonthsUntil is the signed distance in months from m to o.
func (m MonthKey) MonthsUntil(o MonthKey) int {
	return o.index() - m.index()
}

// MonthRange returns every month from..to inclusive. A reversed range is
// empty; a range over MaxMonthSpan months fails with *SpanError.
func MonthRange(from, to MonthKey) ([]MonthKey, error) {
	if to.Before(from) {
		return nil, nil
	}
	n := from.MonthsUntil(to) + 1
	if n > MaxMonthSpan {
		return nil, &SpanError{From: from, To: to, Months: n}
	}
	out := make([]MonthKey, n)
	start := from.index()
	for i := range out {
		out[i] = monthFromIndex(start + i)
	}
	return out, nil
}
