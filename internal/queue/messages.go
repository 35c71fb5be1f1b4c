package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProcessReceiptMessage asks the worker to run extraction for one
// receipt. It carries only the id, the worker reloads the row itself.
type ProcessReceiptMessage struct {
	ReceiptID uuid.UUID `json:"receipt_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProcessReceiptMessage(receiptID uuid.UUID) *ProcessReceiptMessage {
	return &ProcessReceiptMessage{
		ReceiptID: receiptID,
		Timestamp: time.Now(),
	}
}

func (m *ProcessReceiptMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ProcessReceiptMessageFromJSON(data []byte) (*ProcessReceiptMessage, error) {
	var msg ProcessReceiptMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
