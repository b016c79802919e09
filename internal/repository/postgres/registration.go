package postgres

import (
	"context"
	"time"

	"github.com/vendora/vendora/internal/domain/registration"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
)

type registrationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewRegistrationRepository(db *postgres.DB, logger *logger.Logger) registration.Repository {
	return &registrationRepository{db: db, logger: logger}
}

const registrationColumns = `id, email, plan_id, unmapped_price_id, plan_name, external_customer_id, external_subscription_id,
	external_event_id, token, used_at, created_at, updated_at`

func (r *registrationRepository) UpsertByEmail(ctx context.Context, reg *registration.PendingRegistration) (*registration.PendingRegistration, error) {
	reg.UpdatedAt = time.Now().UTC()

	// token and id survive redeliveries so links already emailed keep working
	query := `
	INSERT INTO pending_registrations (` + registrationColumns + `)
	VALUES ($1, $2, $3, $11, $4, $5, $6, $7, $8, NULL, $9, $10)
	ON CONFLICT (email) DO UPDATE SET
		plan_id = EXCLUDED.plan_id,
		unmapped_price_id = EXCLUDED.unmapped_price_id,
		plan_name = EXCLUDED.plan_name,
		external_customer_id = EXCLUDED.external_customer_id,
		external_subscription_id = EXCLUDED.external_subscription_id,
		external_event_id = EXCLUDED.external_event_id,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + registrationColumns

	var stored registration.PendingRegistration
	err := r.db.GetQuerier(ctx).GetContext(ctx, &stored, query,
		reg.ID,
		reg.Email,
		reg.PlanID,
		reg.PlanName,
		reg.ExternalCustomerID,
		reg.ExternalSubscriptionID,
		reg.ExternalEventID,
		reg.Token,
		reg.CreatedAt,
		reg.UpdatedAt,
		reg.UnmappedPriceID,
	)
	if err != nil {
		return nil, wrapErr(err, "pending registration")
	}
	return &stored, nil
}

func (r *registrationRepository) GetByToken(ctx context.Context, token string) (*registration.PendingRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM pending_registrations WHERE token = $1`

	var reg registration.PendingRegistration
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &reg, query, token); err != nil {
		return nil, wrapErr(err, "pending registration")
	}
	return &reg, nil
}

func (r *registrationRepository) GetByEmail(ctx context.Context, email string) (*registration.PendingRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM pending_registrations WHERE email = lower($1)`

	var reg registration.PendingRegistration
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &reg, query, email); err != nil {
		return nil, wrapErr(err, "pending registration")
	}
	return &reg, nil
}

func (r *registrationRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE pending_registrations SET used_at = $2, updated_at = $2 WHERE id = $1 AND used_at IS NULL`,
		id, at,
	)
	if err != nil {
		return false, wrapErr(err, "pending registration")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(err, "pending registration")
	}
	return n == 1, nil
}
