package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"budgettracker/internal/core"
	"budgettracker/internal/engine"
	"budgettracker/internal/ingest"
)

// ReportRequestMessage asks a worker to build the monthly report of a
// snapshot.
type ReportRequestMessage struct {
	ID        string          `json:"id"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Snapshot  ingest.Snapshot `json:"snapshot"`
	ReplyTo   string          `json:"reply_to,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewReportRequestMessage(month core.MonthKey, snap ingest.Snapshot) *ReportRequestMessage {
	return &ReportRequestMessage{
		ID:        uuid.NewString(),
		Year:      month.Year,
		Month:     month.Month,
		Snapshot:  snap,
		Timestamp: time.Now(),
	}
}

// MonthKey validates the requested month.
func (m *ReportRequestMessage) MonthKey() (core.MonthKey, error) {
	return core.NewMonthKey(m.Year, m.Month)
}

func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReportReadyMessage carries a finished report, or the reason it could not
// be built, back to the requester. Report is the encoded engine.Report.
type ReportReadyMessage struct {
	ID        string          `json:"id"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Report    json.RawMessage `json:"report,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`

	// ReplyTo is the queue the result is routed to. It is not serialized.
	ReplyTo string `json:"-"`
}

// NewReportReadyMessage answers req with report, or with buildErr when the
// report failed.
func NewReportReadyMessage(req *ReportRequestMessage, report *engine.Report, buildErr error) (*ReportReadyMessage, error) {
	msg := &ReportReadyMessage{
		ID:        req.ID,
		Year:      req.Year,
		Month:     req.Month,
		Timestamp: time.Now(),
		ReplyTo:   req.ReplyTo,
	}
	if buildErr != nil {
		msg.Error = buildErr.Error()
		return msg, nil
	}
	body, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	msg.Report = body
	return msg, nil
}

func (m *ReportReadyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportReadyMessageFromJSON(data []byte) (*ReportReadyMessage, error) {
	var msg ReportReadyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// malformedRequestReply builds an error result for a request body that does
// not decode, when enough of it survives to address the requester. It
// returns nil when no id can be recovered.
func malformedRequestReply(body []byte, decodeErr error) *ReportReadyMessage {
	var head struct {
		ID      ingest.Scalar `json:"id"`
		ReplyTo ingest.Scalar `json:"reply_to"`
	}
	if err := json.Unmarshal(body, &head); err != nil || head.ID.IsZero() {
		return nil
	}
	return &ReportReadyMessage{
		ID:        head.ID.String(),
		Error:     "decode request: " + decodeErr.Error(),
		Timestamp: time.Now(),
		ReplyTo:   head.ReplyTo.String(),
	}
}
