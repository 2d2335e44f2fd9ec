// Package ingest turns loosely-shaped transaction records, as served by the
// data-fetch layer, into validated core.Transaction variants.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Scalar holds a JSON string or number as text. null decodes to "".
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*s = Scalar(n.String())
	}
	return nil
}

func (s Scalar) String() string { return strings.TrimSpace(string(s)) }

// IsZero reports an absent or blank value.
func (s Scalar) IsZero() bool { return s.String() == "" }

// Record is one income or expense as it arrives on the wire.
type Record struct {
	ID              Scalar            `json:"id"`
	Date            string            `json:"date"`
	Amount          Scalar            `json:"amount"`
	Category        Scalar            `json:"category"`
	CategoryName    string            `json:"category_name"`
	IsRecurring     bool              `json:"is_recurring"`
	EffectiveAmount Scalar            `json:"effective_amount"`
	ChangeLogs      []ChangeLogRecord `json:"change_logs"`
	CreditCard      *CardRef          `json:"credit_card"`
	Installments    int               `json:"installments"`
	Surcharge       Scalar            `json:"surcharge"`

	// invalid is set when the record could not be decoded at all.
	invalid *decodeFailure
}

type decodeFailure struct {
	raw json.RawMessage
	err error
}

// MarshalJSON writes undecodable records back verbatim.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.invalid != nil {
		return r.invalid.raw, nil
	}
	type plain Record
	return json.Marshal(plain(r))
}

// Records decodes a JSON array one element at a time. An element that does
// not fit Record is kept as an invalid record for Parse to report, so one
// bad entry never rejects the whole array.
type Records []Record

func (rs *Records) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	out := make(Records, len(raws))
	for i, raw := range raws {
		if err := json.Unmarshal(raw, &out[i]); err != nil {
			var id struct {
				ID Scalar `json:"id"`
			}
			_ = json.Unmarshal(raw, &id)
			out[i] = Record{ID: id.ID, invalid: &decodeFailure{raw: raw, err: err}}
		}
	}
	*rs = out
	return nil
}

type ChangeLogRecord struct {
	EffectiveDate string `json:"effective_date"`
	NewAmount     Scalar `json:"new_amount"`
}

type CardRecord struct {
	ID             Scalar `json:"id"`
	Brand          string `json:"brand"`
	LastFourDigits Scalar `json:"last_four_digits"`
	CloseCardDay   int    `json:"close_card_day"`

	invalid *decodeFailure
}

// MarshalJSON writes undecodable cards back verbatim.
func (c CardRecord) MarshalJSON() ([]byte, error) {
	if c.invalid != nil {
		return c.invalid.raw, nil
	}
	type plain CardRecord
	return json.Marshal(plain(c))
}

// Cards maps reference ids to cards. Like Records, it decodes entry by entry
// and keeps undecodable cards so the records pointing at them become defects.
type Cards map[string]CardRecord

func (cs *Cards) UnmarshalJSON(b []byte) error {
	var raws map[string]json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	out := make(Cards, len(raws))
	for id, raw := range raws {
		var c CardRecord
		if err := json.Unmarshal(raw, &c); err != nil {
			c = CardRecord{ID: Scalar(id), invalid: &decodeFailure{raw: raw, err: err}}
		}
		out[id] = c
	}
	*cs = out
	return nil
}

// CardRef is either an embedded card object or a reference id.
type CardRef struct {
	ID   Scalar
	Card *CardRecord
}

func (r *CardRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var c CardRecord
		if err := json.Unmarshal(b, &c); err != nil {
			return err
		}
		r.Card = &c
		r.ID = c.ID
		return nil
	}
	return r.ID.UnmarshalJSON(b)
}

func (r CardRef) MarshalJSON() ([]byte, error) {
	if r.Card != nil {
		return json.Marshal(r.Card)
	}
	return json.Marshal(string(r.ID))
}

// References is reference data used to resolve ids carried by records.
type References struct {
	Categories  map[string]string `json:"categories,omitempty"`   // id -> name
	CreditCards Cards             `json:"credit_cards,omitempty"` // id -> card
}

// Snapshot is the wire form of one aggregation request.
type Snapshot struct {
	Incomes    Records    `json:"incomes"`
	Expenses   Records    `json:"expenses"`
	References References `json:"references"`
}
