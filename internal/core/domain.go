package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindIncome     Kind = "income"
	KindExpense    Kind = "expense"
	KindCreditCard Kind = "credit_card"
)

const (
	// MaxAmountCents bounds accepted amounts so surcharge math stays in int64.
	MaxAmountCents = 1_000_000_000_000
	// MaxInstallments matches the month-walk bound.
	MaxInstallments = MaxMonthSpan
	// MaxSurchargeBP is 1000% expressed in hundredths of a percent.
	MaxSurchargeBP = 100_000

	// UndefinedCategory labels records without a category reference.
	UndefinedCategory = "Undefined Category"
)

type (
	// Kind tags the variant of a validated transaction.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// ChangeLogEntry overrides a recurring transaction's monthly amount from
	// the month of EffectiveDate onward.
	ChangeLogEntry struct {
		EffectiveDate Date
		NewAmount     Money
	}

	CreditCard struct {
		ID             string
		Brand          string
		LastFourDigits string
		CloseCardDay   int // 1-31
	}

	// Transaction is the validated form of an income, expense or credit-card
	// record. Only KindCreditCard carries a CreditCard.
	Transaction struct {
		ID              string
		Kind            Kind
		Date            Date
		Amount          Money
		Category        string // empty means undefined
		IsRecurring     bool
		EffectiveAmount *Money
		ChangeLogs      []ChangeLogEntry
		CreditCard      *CreditCard
		Installments    int
		SurchargeBP     int64 // hundredths of a percent
	}

	// SyntheticCharge is one billed month of a credit-card transaction.
	SyntheticCharge struct {
		SourceTransactionID string
		Month               MonthKey
		Label               string
		Amount              Money
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrAmountTooLarge      = errors.New("amount too large")
	ErrInvalidCloseDay     = errors.New("close card day must be between 1 and 31")
	ErrMissingCardIdentity = errors.New("credit card brand and last four digits are required")
	ErrMissingCreditCard   = errors.New("credit card is required")
	ErrInvalidInstallments = errors.New("invalid installments")
	ErrInvalidSurcharge    = errors.New("invalid surcharge")
	ErrInvalidKind         = errors.New("invalid transaction kind")
)

// ParseError reports a value that could not be interpreted.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// MonthKey returns the calendar month the date falls in.
func (d Date) MonthKey() MonthKey {
	return MonthKey{Year: d.Year(), Month: d.Month()}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

func (c CreditCard) Validate() error {
	if c.CloseCardDay < 1 || c.CloseCardDay > 31 {
		return ErrInvalidCloseDay
	}
	if strings.TrimSpace(c.Brand) == "" || strings.TrimSpace(c.LastFourDigits) == "" {
		return ErrMissingCardIdentity
	}
	return nil
}

// Label is the normalized chart label of the card.
func (c CreditCard) Label() string {
	return strings.ToLower(fmt.Sprintf("%s ending in %s", strings.TrimSpace(c.Brand), strings.TrimSpace(c.LastFourDigits)))
}

// CategoryLabel is the normalized chart label of the transaction's category.
func (t Transaction) CategoryLabel() string {
	name := strings.TrimSpace(t.Category)
	if name == "" {
		name = UndefinedCategory
	}
	return strings.ToLower(name)
}

func (t Transaction) Validate() error {
	switch t.Kind {
	case KindIncome, KindExpense, KindCreditCard:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.EffectiveAmount != nil {
		if err := t.EffectiveAmount.Validate(); err != nil {
			return fmt.Errorf("effective amount: %w", err)
		}
	}
	for i, cl := range t.ChangeLogs {
		if err := cl.EffectiveDate.Validate(); err != nil {
			return fmt.Errorf("change log %d: %w", i, err)
		}
		if err := cl.NewAmount.Validate(); err != nil {
			return fmt.Errorf("change log %d: %w", i, err)
		}
	}
	if t.Kind != KindCreditCard {
		return nil
	}
	if t.CreditCard == nil {
		return ErrMissingCreditCard
	}
	if err := t.CreditCard.Validate(); err != nil {
		return err
	}
	if t.Installments < 0 || t.Installments > MaxInstallments {
		return fmt.Errorf("%w: %d", ErrInvalidInstallments, t.Installments)
	}
	if t.SurchargeBP < 0 || t.SurchargeBP > MaxSurchargeBP {
		return fmt.Errorf("%w: %d", ErrInvalidSurcharge, t.SurchargeBP)
	}
	return nil
}
