package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"puntos/internal/core"
)

// Routing keys on the ledger exchange.
const (
	EventActivityLogged = "activity.logged"
	EventRewardRedeemed = "reward.redeemed"
)

// LedgerEvent announces one appended ledger record. Points carries the
// activity points or the reward cost, as frozen at append time.
type LedgerEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	RecordID  string    `json:"record_id"`
	Person    string    `json:"person"`
	Name      string    `json:"name"`
	Date      core.Date `json:"date"`
	Points    int64     `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

func NewActivityLoggedEvent(rec core.ActivityRecord) *LedgerEvent {
	return &LedgerEvent{
		EventID:   uuid.NewString(),
		Type:      EventActivityLogged,
		RecordID:  rec.ID,
		Person:    string(rec.Person),
		Name:      rec.Activity,
		Date:      rec.Date,
		Points:    rec.Points,
		Timestamp: time.Now().UTC(),
	}
}

func NewRewardRedeemedEvent(rec core.RedemptionRecord) *LedgerEvent {
	return &LedgerEvent{
		EventID:   uuid.NewString(),
		Type:      EventRewardRedeemed,
		RecordID:  rec.ID,
		Person:    string(rec.Person),
		Name:      rec.Reward,
		Date:      rec.Date,
		Points:    rec.Cost,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventActivityLogged, EventRewardRedeemed:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
