package amqp

import (
	"encoding/json"
	"time"
)

// PaymentSyncMessage asks the worker to mirror one payment row to the
// report spreadsheet. It carries only the row id; the worker fetches
// the full payment from the database.
type PaymentSyncMessage struct {
	PaymentID string    `json:"payment_id"`
	GroupID   string    `json:"group_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPaymentSyncMessage(paymentID, groupID string) *PaymentSyncMessage {
	return &PaymentSyncMessage{
		PaymentID: paymentID,
		GroupID:   groupID,
		Timestamp: time.Now(),
	}
}

func (m *PaymentSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PaymentSyncMessageFromJSON(data []byte) (*PaymentSyncMessage, error) {
	var msg PaymentSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
