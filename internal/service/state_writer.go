package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/lo"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/domain/subscriptionhistory"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/types"
)

// step tells apply what to do with a mutated state
type step int

const (
	// stepWrite persists the new state and records history
	stepWrite step = iota
	// stepHistoryOnly records the event against the unchanged state
	stepHistoryOnly
	// stepSkip drops the transition without writing anything
	stepSkip
)

// transition is one change to a user's subscription state plus the history entry describing it
type transition struct {
	userID    string
	eventType types.HistoryEventType
	source    types.HistorySource
	eventID   string
	raw       json.RawMessage

	// mutate edits next in place and decides how the result is persisted
	mutate func(prev, next *subscriptionstate.SubscriptionState) step

	// expectedSubscriptionID turns the upsert into a compare-and-swap on the stored subscription id
	expectedSubscriptionID *string

	// skipUnchanged suppresses history when the new state equals the stored one
	skipUnchanged bool

	newPlanName string
	newStatus   string
}

type transitionResult struct {
	State   *subscriptionstate.SubscriptionState
	Written bool
	Entry   *subscriptionhistory.Entry
}

// stateWriter is the single write path into subscription_states and subscription_history.
// Every webhook, reconciliation and activation goes through apply.
type stateWriter struct {
	ServiceParams
}

func newStateWriter(params ServiceParams) *stateWriter {
	return &stateWriter{ServiceParams: params}
}

// apply loads (or lazily creates) the state, mutates a copy, persists it and appends history,
// all in one transaction.
func (w *stateWriter) apply(ctx context.Context, t transition) (*transitionResult, error) {
	result := &transitionResult{}

	err := w.DB.WithTx(ctx, func(ctx context.Context) error {
		existed := true
		prev, err := w.SubscriptionStateRepo.Get(ctx, t.userID)
		if err != nil {
			if !ierr.IsNotFound(err) {
				return err
			}
			existed = false
			prev = subscriptionstate.NewDefault(t.userID)
		}

		next := prev.Clone()
		action := stepWrite
		if t.mutate != nil {
			action = t.mutate(prev, next)
		}
		if action == stepSkip {
			result.State = prev
			return nil
		}

		if action == stepWrite && t.skipUnchanged && next.SameAs(prev) {
			result.State = prev
			if existed {
				return nil
			}
			// first sight of the user: persist the default row, nothing to audit
			if err := w.SubscriptionStateRepo.Upsert(ctx, next); err != nil {
				return err
			}
			result.State = next
			result.Written = true
			return nil
		}

		if action == stepHistoryOnly {
			next = prev
		} else {
			next.UpdatedAt = time.Now().UTC()
			if t.expectedSubscriptionID != nil {
				ok, err := w.SubscriptionStateRepo.UpdateIfSubscription(ctx, next, *t.expectedSubscriptionID)
				if err != nil {
					return err
				}
				if !ok {
					w.Logger.Infow("subscription state changed concurrently, skipping write",
						"user_id", t.userID,
						"expected_subscription_id", *t.expectedSubscriptionID,
						"event_id", t.eventID,
					)
					result.State = prev
					return nil
				}
			} else if err := w.SubscriptionStateRepo.Upsert(ctx, next); err != nil {
				return err
			}
			result.Written = true
		}

		entry := w.historyEntry(t, action, prev, next)
		if err := w.SubscriptionHistoryRepo.Append(ctx, entry); err != nil {
			return err
		}

		result.State = next
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (w *stateWriter) planName(state *subscriptionstate.SubscriptionState) string {
	if state.HasUnmappedPlan() {
		return plan.UnknownPlanName
	}
	return w.Catalog.PlanName(state.PlanID)
}

func (w *stateWriter) historyEntry(t transition, action step, prev, next *subscriptionstate.SubscriptionState) *subscriptionhistory.Entry {
	entry := subscriptionhistory.New(t.userID, t.eventType, t.source)
	entry.PreviousPlanID = prev.PlanID
	entry.NewPlanID = next.PlanID
	entry.PreviousPlanName = w.planName(prev)
	entry.NewPlanName = w.planName(next)
	if action == stepWrite && t.newPlanName != "" {
		entry.NewPlanName = t.newPlanName
	}
	entry.PreviousStatus = prev.StatusLabel(w.Catalog.IsFree)
	entry.NewStatus = lo.Ternary(t.newStatus != "", t.newStatus, next.StatusLabel(w.Catalog.IsFree))
	entry.PreviousIsActive = prev.IsActive
	entry.NewIsActive = next.IsActive
	if t.eventID != "" {
		entry.ExternalEventID = lo.ToPtr(t.eventID)
	}
	if len(t.raw) > 0 {
		entry.RawPayload = t.raw
	}
	return entry
}
