package core

import (
	"encoding/json"
	"fmt"
)

// Defect records an input record the engine excluded and why.
type Defect struct {
	Index int    // position in the source batch, -1 when unknown
	ID    string // source record id, may be empty
	Kind  Kind
	Err   error
}

func (d Defect) Error() string {
	if d.ID != "" {
		return fmt.Sprintf("%s record %d (id %s): %v", d.Kind, d.Index, d.ID, d.Err)
	}
	return fmt.Sprintf("%s record %d: %v", d.Kind, d.Index, d.Err)
}

func (d Defect) Unwrap() error { return d.Err }

func (d Defect) MarshalJSON() ([]byte, error) {
	msg := ""
	if d.Err != nil {
		msg = d.Err.Error()
	}
	return json.Marshal(struct {
		Index int    `json:"index"`
		ID    string `json:"id,omitempty"`
		Kind  Kind   `json:"kind"`
		Error string `json:"error"`
	}{d.Index, d.ID, d.Kind, msg})
}

// Snapshot is a validated batch of transactions for one aggregation call.
type Snapshot struct {
	Incomes           []Transaction
	Expenses          []Transaction
	CreditCardCharges []Transaction
	Defects           []Defect
}
