package amqp

import (
	"encoding/json"
	"time"
)

// EventType names what happened to a debt.
type EventType string

const (
	EventDebtCreated EventType = "debt.created"
	EventDebtCharged EventType = "debt.charged"
	EventDebtUpdated EventType = "debt.updated"
	EventDebtDeleted EventType = "debt.deleted"
)

// DebtEventMessage is published after every successful change to a debt.
// It carries the amounts as they are after the change.
type DebtEventMessage struct {
	Type            EventType `json:"type"`
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Action          string    `json:"action,omitempty"`
	Amount          float64   `json:"amount"`
	TotalAmount     float64   `json:"total_amount"`
	RemainingAmount float64   `json:"remaining_amount"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewDebtEventMessage(typ EventType, id int64, name string) *DebtEventMessage {
	return &DebtEventMessage{
		Type:      typ,
		ID:        id,
		Name:      name,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DebtEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DebtEventMessageFromJSON creates a message from JSON bytes
func DebtEventMessageFromJSON(data []byte) (*DebtEventMessage, error) {
	var msg DebtEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
