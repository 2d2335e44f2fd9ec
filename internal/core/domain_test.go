package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected ok for zero, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if err := (Money{Cents: MaxAmountCents + 1}).Validate(); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestCreditCardLabel(t *testing.T) {
	c := CreditCard{Brand: "Visa", LastFourDigits: "1111", CloseCardDay: 15}
	if got := c.Label(); got != "visa ending in 1111" {
		t.Fatalf("label = %q", got)
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := (Transaction{Category: "Groceries"}).CategoryLabel(); got != "groceries" {
		t.Fatalf("label = %q", got)
	}
	if got := (Transaction{Category: "  "}).CategoryLabel(); got != "undefined category" {
		t.Fatalf("label = %q", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	card := &CreditCard{Brand: "Visa", LastFourDigits: "1111", CloseCardDay: 15}
	good := Transaction{
		ID:         "1",
		Kind:       KindCreditCard,
		Date:       NewDate(2024, 10, 15),
		Amount:     Money{Cents: 30000},
		CreditCard: card,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name string
		mut  func(tx *Transaction)
		want error
	}{
		{"bad kind", func(tx *Transaction) { tx.Kind = "loan" }, ErrInvalidKind},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -5} }, ErrNegativeAmount},
		{"missing card", func(tx *Transaction) { tx.CreditCard = nil }, ErrMissingCreditCard},
		{"blank brand", func(tx *Transaction) { tx.CreditCard = &CreditCard{LastFourDigits: "1", CloseCardDay: 1} }, ErrMissingCardIdentity},
		{"close day zero", func(tx *Transaction) { tx.CreditCard = &CreditCard{Brand: "a", LastFourDigits: "1"} }, ErrInvalidCloseDay},
		{"close day 32", func(tx *Transaction) {
			tx.CreditCard = &CreditCard{Brand: "a", LastFourDigits: "1", CloseCardDay: 32}
		}, ErrInvalidCloseDay},
		{"negative installments", func(tx *Transaction) { tx.Installments = -1 }, ErrInvalidInstallments},
		{"surcharge too large", func(tx *Transaction) { tx.SurchargeBP = MaxSurchargeBP + 1 }, ErrInvalidSurcharge},
		{"negative effective", func(tx *Transaction) { tx.EffectiveAmount = &Money{Cents: -1} }, ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := good
			tt.mut(&tx)
			if err := tx.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExpenseDoesNotNeedCard(t *testing.T) {
	tx := Transaction{Kind: KindExpense, Date: NewDate(2024, 1, 1), Amount: Money{Cents: 1}}
	if err := tx.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}
