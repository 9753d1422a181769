package amqp

import (
	"encoding/json"
	"time"
)

// Entity names carried by ledger events.
const (
	EntityCategory    = "category"
	EntityTransaction = "transaction"
	EntityBudget      = "budget"
)

// Actions carried by ledger events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEvent announces that a user's ledger changed. Consumers receive
// only identifiers and must read the current state from the API; the
// event body never carries amounts.
type LedgerEvent struct {
	UserID    int64     `json:"user_id"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(userID int64, entity, action string, entityID int64) *LedgerEvent {
	return &LedgerEvent{
		UserID:    userID,
		Entity:    entity,
		Action:    action,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
