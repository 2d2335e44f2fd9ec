package ingest

import (
	"encoding/json"
	"errors"
	"testing"

	"budgettracker/internal/core"
)

const snapshotJSON = `{
  "incomes": [
    {"id": 1, "date": "2024-10-01", "amount": "1000.00", "category_name": "Salary", "is_recurring": true},
    {"id": 2, "date": "2024-10-32", "amount": "10.00", "category_name": "Broken"}
  ],
  "expenses": [
    {"id": 10, "date": "2024-10-05", "amount": 40.5, "category": 7, "is_recurring": false,
     "effective_amount": null, "change_logs": []},
    {"id": 11, "date": "2024-10-15", "amount": "300", "category_name": "Tech",
     "credit_card": {"id": 3, "brand": "Visa", "last_four_digits": "1111", "close_card_day": 15},
     "installments": 3, "surcharge": "2.5"},
    {"id": 12, "date": "2024-10-16", "amount": "20", "credit_card": 4},
    {"id": 13, "date": "2024-10-16", "amount": "20", "credit_card": {"id": 5, "brand": "", "last_four_digits": "", "close_card_day": 10}},
    {"id": 14, "date": "2024-10-16", "amount": "20", "credit_card": 99},
    {"id": 15, "date": "2024-01-10", "amount": "50", "category_name": "Gym", "is_recurring": true,
     "effective_amount": "75", "change_logs": [{"effective_date": "2024-06-01", "new_amount": "75"}]}
  ],
  "references": {
    "categories": {"7": "Groceries"},
    "credit_cards": {"4": {"id": 4, "brand": "Amex", "last_four_digits": 4242, "close_card_day": 20}}
  }
}`

func decodeSnapshot(t *testing.T) Snapshot {
	t.Helper()
	var s Snapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return s
}

func TestSnapshotValidate(t *testing.T) {
	snap := decodeSnapshot(t).Validate()

	if len(snap.Incomes) != 1 || snap.Incomes[0].ID != "1" {
		t.Fatalf("incomes = %+v", snap.Incomes)
	}
	if len(snap.Expenses) != 2 {
		t.Fatalf("expenses = %+v", snap.Expenses)
	}
	if snap.Expenses[0].Category != "Groceries" || snap.Expenses[0].Amount.Cents != 4050 {
		t.Fatalf("expense 10 = %+v", snap.Expenses[0])
	}
	gym := snap.Expenses[1]
	if gym.EffectiveAmount == nil || gym.EffectiveAmount.Cents != 7500 || len(gym.ChangeLogs) != 1 {
		t.Fatalf("expense 15 = %+v", gym)
	}

	if len(snap.CreditCardCharges) != 2 {
		t.Fatalf("credit charges = %+v", snap.CreditCardCharges)
	}
	visa := snap.CreditCardCharges[0]
	if visa.Kind != core.KindCreditCard || visa.Installments != 3 || visa.SurchargeBP != 250 {
		t.Fatalf("visa charge = %+v", visa)
	}
	if visa.CreditCard.Label() != "visa ending in 1111" || visa.CreditCard.CloseCardDay != 15 {
		t.Fatalf("visa card = %+v", visa.CreditCard)
	}
	amex := snap.CreditCardCharges[1]
	if amex.CreditCard.Label() != "amex ending in 4242" {
		t.Fatalf("amex card = %+v", amex.CreditCard)
	}

	if len(snap.Defects) != 3 {
		t.Fatalf("defects = %v", snap.Defects)
	}
	var pe *core.ParseError
	if !errors.As(snap.Defects[0], &pe) || snap.Defects[0].ID != "2" || snap.Defects[0].Kind != core.KindIncome {
		t.Fatalf("defect 0 = %v", snap.Defects[0])
	}
	if !errors.Is(snap.Defects[1], core.ErrMissingCardIdentity) || snap.Defects[1].ID != "13" {
		t.Fatalf("defect 1 = %v", snap.Defects[1])
	}
	if !errors.Is(snap.Defects[2], ErrUnknownReference) || snap.Defects[2].Index != 4 {
		t.Fatalf("defect 2 = %v", snap.Defects[2])
	}
}

func TestParseCategoryResolution(t *testing.T) {
	refs := References{Categories: map[string]string{"1": "Rent"}}
	recs := []Record{
		{Date: "2024-01-01", Amount: "1", Category: "1"},
		{Date: "2024-01-01", Amount: "1", Category: "2"},
		{Date: "2024-01-01", Amount: "1", Category: "Food"},
		{Date: "2024-01-01", Amount: "1", Category: "1", CategoryName: "Named"},
		{Date: "2024-01-01", Amount: "1"},
	}
	txs, defects := Parse(core.KindExpense, recs, refs)
	if len(defects) != 0 {
		t.Fatalf("unexpected defects: %v", defects)
	}
	want := []string{"rent", "undefined category", "food", "named", "undefined category"}
	for i, tx := range txs {
		if got := tx.CategoryLabel(); got != want[i] {
			t.Errorf("record %d label = %q, want %q", i, got, want[i])
		}
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want error
	}{
		{"negative amount", Record{Date: "2024-01-01", Amount: "-3"}, core.ErrNegativeAmount},
		{"garbage amount", Record{Date: "2024-01-01", Amount: "x"}, core.ErrInvalidAmount},
		{"bad change log date", Record{Date: "2024-01-01", Amount: "1",
			ChangeLogs: []ChangeLogRecord{{EffectiveDate: "June", NewAmount: "1"}}}, nil},
		{"bad surcharge", Record{Date: "2024-01-01", Amount: "1", Surcharge: "abc",
			CreditCard: &CardRef{Card: &CardRecord{Brand: "V", LastFourDigits: "1", CloseCardDay: 1}}}, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, defects := Parse(core.KindExpense, []Record{tt.rec}, References{})
			if len(txs) != 0 || len(defects) != 1 {
				t.Fatalf("txs=%v defects=%v", txs, defects)
			}
			if tt.want != nil && !errors.Is(defects[0], tt.want) {
				t.Fatalf("defect = %v, want %v", defects[0], tt.want)
			}
			var pe *core.ParseError
			if !errors.As(defects[0], &pe) {
				t.Fatalf("expected ParseError, got %v", defects[0])
			}
		})
	}
}

func TestParseCreditCardKindRequiresCard(t *testing.T) {
	_, defects := Parse(core.KindCreditCard, []Record{{Date: "2024-01-01", Amount: "1"}}, References{})
	if len(defects) != 1 || !errors.Is(defects[0], core.ErrMissingCreditCard) {
		t.Fatalf("defects = %v", defects)
	}
}

func TestScalarRejectsBool(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"amount": true}`), &r); err == nil {
		t.Fatalf("expected error for boolean amount")
	}
}

func TestMalformedRecordBecomesDefect(t *testing.T) {
	const body = `{
  "incomes": [
    {"id": 1, "date": "2024-10-01", "amount": "1000.00", "is_recurring": "true"},
    {"id": 2, "date": "2024-10-01", "amount": "200.00"}
  ],
  "expenses": [{"id": "x", "amount": {"value": 3}}]
}`
	var ws Snapshot
	if err := json.Unmarshal([]byte(body), &ws); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	snap := ws.Validate()

	if len(snap.Incomes) != 1 || snap.Incomes[0].ID != "2" {
		t.Fatalf("incomes = %+v, want only id 2", snap.Incomes)
	}
	if len(snap.Defects) != 2 {
		t.Fatalf("defects = %v, want 2", snap.Defects)
	}
	want := []struct {
		index int
		id    string
		kind  core.Kind
	}{
		{0, "1", core.KindIncome},
		{0, "x", core.KindExpense},
	}
	for i, w := range want {
		d := snap.Defects[i]
		if d.Index != w.index || d.ID != w.id || d.Kind != w.kind {
			t.Errorf("defect %d = %+v, want index %d id %q kind %v", i, d, w.index, w.id, w.kind)
		}
		var pe *core.ParseError
		if !errors.As(d, &pe) || pe.Field != "record" {
			t.Errorf("defect %d error = %v, want record parse error", i, d.Err)
		}
	}
}

func TestRecordsRoundTripKeepsMalformedEntry(t *testing.T) {
	const body = `[{"id":1,"is_recurring":"yes"},{"id":2,"date":"2024-01-01","amount":"5"}]`
	var rs Records
	if err := json.Unmarshal([]byte(body), &rs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(rs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Records
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	txs, defects := Parse(core.KindIncome, again, References{})
	if len(txs) != 1 || len(defects) != 1 || defects[0].ID != "1" {
		t.Fatalf("txs = %v defects = %v", txs, defects)
	}
}

func TestRecordsRejectsNonArray(t *testing.T) {
	var rs Records
	if err := json.Unmarshal([]byte(`{"id":1}`), &rs); err == nil {
		t.Fatalf("expected error for non-array records")
	}
}

func TestMalformedReferenceCardFailsOnlyItsRecords(t *testing.T) {
	const body = `{
  "expenses": [
    {"id": 1, "date": "2024-10-01", "amount": "30", "credit_card": 9},
    {"id": 2, "date": "2024-10-01", "amount": "20", "credit_card": 3},
    {"id": 3, "date": "2024-10-01", "amount": "10"}
  ],
  "references": {"credit_cards": {
    "9": {"id": 9, "brand": "Visa", "last_four_digits": "1111", "close_card_day": "15"},
    "3": {"id": 3, "brand": "Amex", "last_four_digits": "2222", "close_card_day": 20}
  }}
}`
	var ws Snapshot
	if err := json.Unmarshal([]byte(body), &ws); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	snap := ws.Validate()
	if len(snap.CreditCardCharges) != 1 || snap.CreditCardCharges[0].ID != "2" {
		t.Errorf("card charges = %+v", snap.CreditCardCharges)
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != "3" {
		t.Errorf("expenses = %+v", snap.Expenses)
	}
	var pe *core.ParseError
	if len(snap.Defects) != 1 || snap.Defects[0].ID != "1" || !errors.As(snap.Defects[0], &pe) || pe.Field != "credit_card" {
		t.Fatalf("defects = %v", snap.Defects)
	}
}
