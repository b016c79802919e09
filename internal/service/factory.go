package service

import (
	"github.com/vendora/vendora/internal/auth"
	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/domain/registration"
	"github.com/vendora/vendora/internal/domain/subscriptionhistory"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/domain/user"
	"github.com/vendora/vendora/internal/httpclient"
	stripeint "github.com/vendora/vendora/internal/integration/stripe"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
	"github.com/vendora/vendora/internal/pubsub"
	"github.com/vendora/vendora/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Sentry *sentry.Service

	// Repositories
	UserRepo                user.Repository
	SubscriptionStateRepo   subscriptionstate.Repository
	SubscriptionHistoryRepo subscriptionhistory.Repository
	RegistrationRepo        registration.Repository

	// Billing
	Catalog *plan.Catalog
	Stripe  stripeint.Gateway
	Auth    auth.Provider

	// Side effects
	Publisher pubsub.Publisher

	// http client
	Client httpclient.Client
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	sentry *sentry.Service,
	userRepo user.Repository,
	subscriptionStateRepo subscriptionstate.Repository,
	subscriptionHistoryRepo subscriptionhistory.Repository,
	registrationRepo registration.Repository,
	catalog *plan.Catalog,
	stripeGateway stripeint.Gateway,
	authProvider auth.Provider,
	publisher pubsub.PubSub,
	client httpclient.Client,
) ServiceParams {
	return ServiceParams{
		Logger:                  logger,
		Config:                  config,
		DB:                      db,
		Sentry:                  sentry,
		UserRepo:                userRepo,
		SubscriptionStateRepo:   subscriptionStateRepo,
		SubscriptionHistoryRepo: subscriptionHistoryRepo,
		RegistrationRepo:        registrationRepo,
		Catalog:                 catalog,
		Stripe:                  stripeGateway,
		Auth:                    authProvider,
		Publisher:               publisher,
		Client:                  client,
	}
}
