package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Report formats accepted on the wire.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ReportRequestMessage asks the worker to build a financial report for
// a user. It carries only identifiers; the worker reads the user's
// current data from the database when the job runs.
type ReportRequestMessage struct {
	JobID       string    `json:"job_id"`
	UserID      int64     `json:"user_id"`
	Format      string    `json:"format"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewReportRequestMessage(jobID string, userID int64, format string) *ReportRequestMessage {
	return &ReportRequestMessage{
		JobID:       jobID,
		UserID:      userID,
		Format:      format,
		RequestedAt: time.Now(),
	}
}

func (m *ReportRequestMessage) Validate() error {
	if m.JobID == "" {
		return fmt.Errorf("missing job id")
	}
	if m.UserID <= 0 {
		return fmt.Errorf("invalid user id %d", m.UserID)
	}
	if m.Format != FormatCSV && m.Format != FormatPDF {
		return fmt.Errorf("unknown report format %q", m.Format)
	}
	return nil
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
