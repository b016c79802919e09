package postgres

import (
	"context"

	"github.com/vendora/vendora/internal/domain/user"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
)

type userRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (id, email, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return wrapErr(err, "user")
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = $1`

	var u user.User
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &u, query, id); err != nil {
		return nil, wrapErr(err, "user")
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`

	var u user.User
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &u, query, user.NormalizeEmail(email)); err != nil {
		return nil, wrapErr(err, "user")
	}
	return &u, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return wrapErr(err, "user")
}
