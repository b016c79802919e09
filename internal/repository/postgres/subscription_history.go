package postgres

import (
	"context"

	"github.com/vendora/vendora/internal/domain/subscriptionhistory"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
)

type subscriptionHistoryRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionHistoryRepository(db *postgres.DB, logger *logger.Logger) subscriptionhistory.Repository {
	return &subscriptionHistoryRepository{db: db, logger: logger}
}

func (r *subscriptionHistoryRepository) Append(ctx context.Context, e *subscriptionhistory.Entry) error {
	query := `
	INSERT INTO subscription_history (
		id, user_id, previous_plan_id, new_plan_id, previous_plan_name, new_plan_name,
		previous_status, new_status, previous_is_active, new_is_active,
		event_type, source, external_event_id, raw_payload, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.PreviousPlanID,
		e.NewPlanID,
		e.PreviousPlanName,
		e.NewPlanName,
		e.PreviousStatus,
		e.NewStatus,
		e.PreviousIsActive,
		e.NewIsActive,
		e.EventType,
		e.Source,
		e.ExternalEventID,
		jsonParam(e.RawPayload),
		e.CreatedAt,
	)
	return wrapErr(err, "subscription history")
}

func (r *subscriptionHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*subscriptionhistory.Entry, error) {
	query := `
	SELECT id, user_id, previous_plan_id, new_plan_id, previous_plan_name, new_plan_name,
		previous_status, new_status, previous_is_active, new_is_active,
		event_type, source, external_event_id, raw_payload, created_at
	FROM subscription_history
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2`

	entries := make([]*subscriptionhistory.Entry, 0)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, wrapErr(err, "subscription history")
	}
	return entries, nil
}

// jsonParam passes a raw JSON document as text so lib/pq does not encode it as bytea
func jsonParam(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
