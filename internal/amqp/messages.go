package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotSavedMessage announces a persisted state snapshot. It carries
// the headline totals so consumers can back up a summary row without
// reloading the full state.
type SnapshotSavedMessage struct {
	SavedAt       time.Time `json:"saved_at"`
	MonthlyRON    float64   `json:"monthly_ron"`
	AnnualRON     float64   `json:"annual_ron"`
	ObligationRON float64   `json:"obligation_ron"`
}

// NewSnapshotSavedMessage builds a message for one save.
func NewSnapshotSavedMessage(savedAt time.Time, monthly, annual, obligation float64) *SnapshotSavedMessage {
	return &SnapshotSavedMessage{
		SavedAt:       savedAt,
		MonthlyRON:    monthly,
		AnnualRON:     annual,
		ObligationRON: obligation,
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SnapshotSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotSavedMessageFromJSON decodes a message from JSON bytes.
func SnapshotSavedMessageFromJSON(data []byte) (*SnapshotSavedMessage, error) {
	var msg SnapshotSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
