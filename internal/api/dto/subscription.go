package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendora/vendora/internal/domain/subscriptionhistory"
	"github.com/vendora/vendora/internal/types"
	"github.com/vendora/vendora/internal/validator"
)

// SubscriptionStatusResponse answers "what plan does this user have"
type SubscriptionStatusResponse struct {
	Subscribed        bool       `json:"subscribed"`
	PlanName          string     `json:"plan_name"`
	SubscriptionEnd   *time.Time `json:"subscription_end,omitempty"`
	CancelAtPeriodEnd *bool      `json:"cancel_at_period_end,omitempty"`
}

// ListSubscriptionHistoryRequest pages through the caller's history entries
type ListSubscriptionHistoryRequest struct {
	Limit int `form:"limit" json:"limit" validate:"omitempty,min=1,max=200"`
}

func (r *ListSubscriptionHistoryRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// GetLimit returns the page size, defaulting to 50
func (r *ListSubscriptionHistoryRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 50
	}
	return r.Limit
}

type SubscriptionHistoryEntryResponse struct {
	ID               string                 `json:"id"`
	PreviousPlanID   *uuid.UUID             `json:"previous_plan_id,omitempty"`
	NewPlanID        *uuid.UUID             `json:"new_plan_id,omitempty"`
	PreviousPlanName string                 `json:"previous_plan_name"`
	NewPlanName      string                 `json:"new_plan_name"`
	PreviousStatus   string                 `json:"previous_status"`
	NewStatus        string                 `json:"new_status"`
	PreviousIsActive bool                   `json:"previous_is_active"`
	NewIsActive      bool                   `json:"new_is_active"`
	EventType        types.HistoryEventType `json:"event_type"`
	Source           types.HistorySource    `json:"source"`
	ExternalEventID  *string                `json:"external_event_id,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

type ListSubscriptionHistoryResponse struct {
	Items []*SubscriptionHistoryEntryResponse `json:"items"`
}

func NewSubscriptionHistoryEntryResponse(e *subscriptionhistory.Entry) *SubscriptionHistoryEntryResponse {
	return &SubscriptionHistoryEntryResponse{
		ID:               e.ID,
		PreviousPlanID:   e.PreviousPlanID,
		NewPlanID:        e.NewPlanID,
		PreviousPlanName: e.PreviousPlanName,
		NewPlanName:      e.NewPlanName,
		PreviousStatus:   e.PreviousStatus,
		NewStatus:        e.NewStatus,
		PreviousIsActive: e.PreviousIsActive,
		NewIsActive:      e.NewIsActive,
		EventType:        e.EventType,
		Source:           e.Source,
		ExternalEventID:  e.ExternalEventID,
		CreatedAt:        e.CreatedAt,
	}
}
