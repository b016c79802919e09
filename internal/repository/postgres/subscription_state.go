package postgres

import (
	"context"
	"time"

	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
)

type subscriptionStateRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionStateRepository(db *postgres.DB, logger *logger.Logger) subscriptionstate.Repository {
	return &subscriptionStateRepository{db: db, logger: logger}
}

const subscriptionStateColumns = `user_id, plan_id, unmapped_price_id, is_active, payment_method, external_customer_id,
	external_subscription_id, bypass_external_check, cancel_at_period_end, subscription_end,
	created_at, updated_at`

func (r *subscriptionStateRepository) Get(ctx context.Context, userID string) (*subscriptionstate.SubscriptionState, error) {
	query := `SELECT ` + subscriptionStateColumns + ` FROM subscription_states WHERE user_id = $1`

	var s subscriptionstate.SubscriptionState
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &s, query, userID); err != nil {
		return nil, wrapErr(err, "subscription state")
	}
	return &s, nil
}

func (r *subscriptionStateRepository) GetByExternalCustomerID(ctx context.Context, customerID string) (*subscriptionstate.SubscriptionState, error) {
	query := `SELECT ` + subscriptionStateColumns + ` FROM subscription_states
	WHERE external_customer_id = $1
	ORDER BY updated_at DESC
	LIMIT 1`

	var s subscriptionstate.SubscriptionState
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &s, query, customerID); err != nil {
		return nil, wrapErr(err, "subscription state")
	}
	return &s, nil
}

func (r *subscriptionStateRepository) Upsert(ctx context.Context, s *subscriptionstate.SubscriptionState) error {
	s.UpdatedAt = time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}

	query := `
	INSERT INTO subscription_states (` + subscriptionStateColumns + `)
	VALUES (:user_id, :plan_id, :unmapped_price_id, :is_active, :payment_method, :external_customer_id,
		:external_subscription_id, :bypass_external_check, :cancel_at_period_end, :subscription_end,
		:created_at, :updated_at)
	ON CONFLICT (user_id) DO UPDATE SET
		plan_id = EXCLUDED.plan_id,
		unmapped_price_id = EXCLUDED.unmapped_price_id,
		is_active = EXCLUDED.is_active,
		payment_method = EXCLUDED.payment_method,
		external_customer_id = EXCLUDED.external_customer_id,
		external_subscription_id = EXCLUDED.external_subscription_id,
		bypass_external_check = EXCLUDED.bypass_external_check,
		cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		subscription_end = EXCLUDED.subscription_end,
		updated_at = EXCLUDED.updated_at`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, s)
	return wrapErr(err, "subscription state")
}

func (r *subscriptionStateRepository) UpdateIfSubscription(ctx context.Context, s *subscriptionstate.SubscriptionState, expectedSubscriptionID string) (bool, error) {
	s.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE subscription_states SET
		plan_id = $2,
		is_active = $3,
		payment_method = $4,
		external_customer_id = $5,
		external_subscription_id = $6,
		bypass_external_check = $7,
		cancel_at_period_end = $8,
		subscription_end = $9,
		updated_at = $10,
		unmapped_price_id = $12
	WHERE user_id = $1 AND external_subscription_id = $11`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		s.UserID,
		s.PlanID,
		s.IsActive,
		s.PaymentMethod,
		s.ExternalCustomerID,
		s.ExternalSubscriptionID,
		s.BypassExternalCheck,
		s.CancelAtPeriodEnd,
		s.SubscriptionEnd,
		s.UpdatedAt,
		expectedSubscriptionID,
		s.UnmappedPriceID,
	)
	if err != nil {
		return false, wrapErr(err, "subscription state")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(err, "subscription state")
	}
	return n == 1, nil
}

func (r *subscriptionStateRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM subscription_states WHERE user_id = $1`, userID)
	return wrapErr(err, "subscription state")
}
