package repository

import (
	"github.com/vendora/vendora/internal/domain/registration"
	"github.com/vendora/vendora/internal/domain/subscriptionhistory"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/domain/user"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
	postgresRepo "github.com/vendora/vendora/internal/repository/postgres"
)

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return postgresRepo.NewUserRepository(db, logger)
}

func NewSubscriptionStateRepository(db *postgres.DB, logger *logger.Logger) subscriptionstate.Repository {
	return postgresRepo.NewSubscriptionStateRepository(db, logger)
}

func NewSubscriptionHistoryRepository(db *postgres.DB, logger *logger.Logger) subscriptionhistory.Repository {
	return postgresRepo.NewSubscriptionHistoryRepository(db, logger)
}

func NewRegistrationRepository(db *postgres.DB, logger *logger.Logger) registration.Repository {
	return postgresRepo.NewRegistrationRepository(db, logger)
}
