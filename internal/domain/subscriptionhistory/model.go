package subscriptionhistory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vendora/vendora/internal/types"
)

// Entry is one append-only audit record of a plan transition
type Entry struct {
	ID               string                 `db:"id" json:"id"`
	UserID           string                 `db:"user_id" json:"user_id"`
	PreviousPlanID   *uuid.UUID             `db:"previous_plan_id" json:"previous_plan_id,omitempty"`
	NewPlanID        *uuid.UUID             `db:"new_plan_id" json:"new_plan_id,omitempty"`
	PreviousPlanName string                 `db:"previous_plan_name" json:"previous_plan_name"`
	NewPlanName      string                 `db:"new_plan_name" json:"new_plan_name"`
	PreviousStatus   string                 `db:"previous_status" json:"previous_status"`
	NewStatus        string                 `db:"new_status" json:"new_status"`
	PreviousIsActive bool                   `db:"previous_is_active" json:"previous_is_active"`
	NewIsActive      bool                   `db:"new_is_active" json:"new_is_active"`
	EventType        types.HistoryEventType `db:"event_type" json:"event_type"`
	Source           types.HistorySource    `db:"source" json:"source"`
	ExternalEventID  *string                `db:"external_event_id" json:"external_event_id,omitempty"`
	RawPayload       json.RawMessage        `db:"raw_payload" json:"-"`
	CreatedAt        time.Time              `db:"created_at" json:"created_at"`
}

// New returns an entry with id and timestamp set
func New(userID string, eventType types.HistoryEventType, source types.HistorySource) *Entry {
	return &Entry{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_HISTORY),
		UserID:    userID,
		EventType: eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}
