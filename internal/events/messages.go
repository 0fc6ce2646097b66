package events

import (
	"encoding/json"
	"time"
)

// Record mutation actions carried by events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordEvent is a lightweight notification that a record changed.
// It carries identifiers only; consumers that need the full record
// fetch it from the store.
type RecordEvent struct {
	Action    string    `json:"action"`
	RecordID  int64     `json:"record_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEvent creates an event stamped with the current time.
func NewRecordEvent(action string, recordID, userID int64) *RecordEvent {
	return &RecordEvent{
		Action:    action,
		RecordID:  recordID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON creates an event from JSON bytes.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
