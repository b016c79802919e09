package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/vendora/vendora/internal/auth"
	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/domain/user"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/sentry"
	"github.com/vendora/vendora/internal/types"
	"github.com/vendora/vendora/internal/validator"
)

// Stores holds all the in-memory repositories for testing
type Stores struct {
	UserRepo                *InMemoryUserStore
	SubscriptionStateRepo   *InMemorySubscriptionStateStore
	SubscriptionHistoryRepo *InMemorySubscriptionHistoryStore
	RegistrationRepo        *InMemoryRegistrationStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	stores     Stores
	db         *MockPostgresClient
	logger     *logger.Logger
	config     *config.Configuration
	catalog    *plan.Catalog
	stripe     *FakeStripeGateway
	pubsub     *InMemoryPubSub
	httpClient *MockHTTPClient
	auth       auth.Provider
	sentry     *sentry.Service
	now        time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Auth.Secret = "test-jwt-secret-for-unit-tests-only"
	cfg.Stripe.WebhookSecret = TestWebhookSecret
	cfg.App.BaseURL = "https://app.vendora.test"
	cfg.Marketing = config.MarketingConfig{
		Enabled:     true,
		Endpoint:    "https://marketing.vendora.test/v1/tags",
		APIKey:      "mk_test",
		RefundedTag: "reembolsado",
	}
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	s.catalog, err = plan.NewCatalog(cfg)
	if err != nil {
		s.T().Fatalf("failed to build catalog: %v", err)
	}

	s.auth = auth.NewProvider(cfg)
	s.sentry = sentry.NewSentryService(cfg, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		UserRepo:                NewInMemoryUserStore(),
		SubscriptionStateRepo:   NewInMemorySubscriptionStateStore(),
		SubscriptionHistoryRepo: NewInMemorySubscriptionHistoryStore(),
		RegistrationRepo:        NewInMemoryRegistrationStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.stripe = NewFakeStripeGateway()
	s.pubsub = NewInMemoryPubSub()
	s.httpClient = NewMockHTTPClient()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.UserRepo.Clear()
	s.stores.SubscriptionStateRepo.Clear()
	s.stores.SubscriptionHistoryRepo.Clear()
	s.stores.RegistrationRepo.Clear()
	s.pubsub.ClearMessages()
	s.httpClient.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetCatalog returns the default plan catalog
func (s *BaseServiceTestSuite) GetCatalog() *plan.Catalog {
	return s.catalog
}

// GetStripe returns the fake payment provider
func (s *BaseServiceTestSuite) GetStripe() *FakeStripeGateway {
	return s.stripe
}

// GetPubSub returns the in-memory publisher
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubsub
}

// GetHTTPClient returns the mock outbound client
func (s *BaseServiceTestSuite) GetHTTPClient() *MockHTTPClient {
	return s.httpClient
}

// GetAuth returns the JWT provider
func (s *BaseServiceTestSuite) GetAuth() auth.Provider {
	return s.auth
}

// GetSentry returns a disabled Sentry service
func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// PlanID returns the id of the catalog plan with the given name
func (s *BaseServiceTestSuite) PlanID(name string) uuid.UUID {
	p, ok := lo.Find(s.catalog.Plans(), func(p *plan.Plan) bool { return p.Name == name })
	if !ok {
		s.T().Fatalf("plan %q not in catalog", name)
	}
	return p.ID
}

// CreateUser stores a user with a throwaway password hash
func (s *BaseServiceTestSuite) CreateUser(email string) *user.User {
	u := user.NewUser(email, "$2a$10$test")
	s.Require().NoError(s.stores.UserRepo.Create(s.ctx, u))
	return u
}

// SeedState stores a subscription state for the user without recording history
func (s *BaseServiceTestSuite) SeedState(state *subscriptionstate.SubscriptionState) {
	s.stores.SubscriptionStateRepo.Seed(state)
}

// State returns the stored state of the user, failing the test when none exists
func (s *BaseServiceTestSuite) State(userID string) *subscriptionstate.SubscriptionState {
	state, err := s.stores.SubscriptionStateRepo.Get(s.ctx, userID)
	s.Require().NoError(err)
	return state
}
