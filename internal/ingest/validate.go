package ingest

import (
	"errors"
	"fmt"
	"strconv"

	"budgettracker/internal/core"
)

var ErrUnknownReference = errors.New("unknown reference")

// Parse validates records of the given kind. Records that cannot be
// interpreted are reported as defects and excluded; the rest are returned in
// input order. For KindExpense, records carrying a credit card are returned as
// KindCreditCard variants.
func Parse(kind core.Kind, records []Record, refs References) ([]core.Transaction, []core.Defect) {
	out := make([]core.Transaction, 0, len(records))
	var defects []core.Defect
	for i, rec := range records {
		if rec.invalid != nil {
			defects = append(defects, core.Defect{Index: i, ID: rec.ID.String(), Kind: kind, Err: &core.ParseError{
				Field: "record",
				Value: string(rec.invalid.raw),
				Err:   rec.invalid.err,
			}})
			continue
		}
		tx, err := refs.toTransaction(kind, rec)
		if err == nil {
			err = tx.Validate()
		}
		if err != nil {
			defects = append(defects, core.Defect{Index: i, ID: rec.ID.String(), Kind: kind, Err: err})
			continue
		}
		out = append(out, tx)
	}
	return out, defects
}

// Validate turns a wire snapshot into a core.Snapshot.
func (s Snapshot) Validate() core.Snapshot {
	var snap core.Snapshot

	incomes, defects := Parse(core.KindIncome, s.Incomes, s.References)
	snap.Incomes = incomes
	snap.Defects = append(snap.Defects, defects...)

	expenses, defects := Parse(core.KindExpense, s.Expenses, s.References)
	snap.Defects = append(snap.Defects, defects...)
	for _, tx := range expenses {
		if tx.Kind == core.KindCreditCard {
			snap.CreditCardCharges = append(snap.CreditCardCharges, tx)
		} else {
			snap.Expenses = append(snap.Expenses, tx)
		}
	}
	return snap
}

func (refs References) toTransaction(kind core.Kind, rec Record) (core.Transaction, error) {
	date, err := core.ParseDate(rec.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseMoney(rec.Amount.String())
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		ID:          rec.ID.String(),
		Kind:        kind,
		Date:        date,
		Amount:      amount,
		Category:    refs.categoryName(rec),
		IsRecurring: rec.IsRecurring,
	}

	if !rec.EffectiveAmount.IsZero() {
		eff, err := core.ParseMoney(rec.EffectiveAmount.String())
		if err != nil {
			return core.Transaction{}, fmt.Errorf("effective amount: %w", err)
		}
		tx.EffectiveAmount = &eff
	}

	for i, cl := range rec.ChangeLogs {
		d, err := core.ParseDate(cl.EffectiveDate)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("change log %d: %w", i, err)
		}
		m, err := core.ParseMoney(cl.NewAmount.String())
		if err != nil {
			return core.Transaction{}, fmt.Errorf("change log %d: %w", i, err)
		}
		tx.ChangeLogs = append(tx.ChangeLogs, core.ChangeLogEntry{EffectiveDate: d, NewAmount: m})
	}

	if kind == core.KindIncome || (rec.CreditCard == nil && kind == core.KindExpense) {
		return tx, nil
	}

	card, err := refs.creditCard(rec.CreditCard)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Kind = core.KindCreditCard
	tx.CreditCard = card
	tx.Installments = rec.Installments
	if !rec.Surcharge.IsZero() {
		// Surcharge percent parses with two decimals, i.e. hundredths of a percent.
		bp, err := core.ParseDecimalToCents(rec.Surcharge.String())
		if err != nil {
			return core.Transaction{}, &core.ParseError{Field: "surcharge", Value: rec.Surcharge.String(), Err: err}
		}
		tx.SurchargeBP = bp
	}
	return tx, nil
}

func (refs References) categoryName(rec Record) string {
	if rec.CategoryName != "" {
		return rec.CategoryName
	}
	ref := rec.Category.String()
	if ref == "" {
		return ""
	}
	if name, ok := refs.Categories[ref]; ok {
		return name
	}
	// A bare number is an id we cannot resolve; anything else is a name.
	if _, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return ""
	}
	return ref
}

func (refs References) creditCard(ref *CardRef) (*core.CreditCard, error) {
	if ref == nil {
		return nil, core.ErrMissingCreditCard
	}
	rec := ref.Card
	if rec == nil {
		c, ok := refs.CreditCards[ref.ID.String()]
		if !ok {
			return nil, fmt.Errorf("%w: credit card %q", ErrUnknownReference, ref.ID.String())
		}
		rec = &c
	}
	if rec.invalid != nil {
		return nil, &core.ParseError{Field: "credit_card", Value: string(rec.invalid.raw), Err: rec.invalid.err}
	}
	return &core.CreditCard{
		ID:             rec.ID.String(),
		Brand:          rec.Brand,
		LastFourDigits: rec.LastFourDigits.String(),
		CloseCardDay:   rec.CloseCardDay,
	}, nil
}
