package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/vendora/vendora/internal/api"
	v1 "github.com/vendora/vendora/internal/api/v1"
	"github.com/vendora/vendora/internal/auth"
	"github.com/vendora/vendora/internal/cache"
	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/email"
	"github.com/vendora/vendora/internal/httpclient"
	"github.com/vendora/vendora/internal/integration/marketing"
	"github.com/vendora/vendora/internal/integration/platform"
	stripeint "github.com/vendora/vendora/internal/integration/stripe"
	"github.com/vendora/vendora/internal/integration/stripe/webhook"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/postgres"
	"github.com/vendora/vendora/internal/pubsub"
	"github.com/vendora/vendora/internal/pubsub/memory"
	pubsubRouter "github.com/vendora/vendora/internal/pubsub/router"
	"github.com/vendora/vendora/internal/repository"
	"github.com/vendora/vendora/internal/sentry"
	"github.com/vendora/vendora/internal/service"
	"github.com/vendora/vendora/internal/types"
	"github.com/vendora/vendora/internal/validator"
	"go.uber.org/fx"
)

// @title Vendora API
// @version 1.0
// @description Subscription state and product validation service
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// HTTP Client
			provideHTTPClient,

			// Auth
			auth.NewProvider,

			// Plan catalog
			plan.NewCatalog,

			// Cache
			cache.NewInMemoryCache,

			// Payment provider
			provideStripeGateway,

			// Repositories
			repository.NewUserRepository,
			repository.NewSubscriptionStateRepository,
			repository.NewSubscriptionHistoryRepository,
			repository.NewRegistrationRepository,

			// PubSub
			memory.NewPubSub,
			pubsubRouter.NewRouter,

			// Side-effect integrations
			email.NewEmailClient,
			email.NewEmail,
			marketing.NewClient,
			platform.NewRegistry,
		),
		sentry.Module(),
		postgres.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewNotificationService,
			service.NewRegistrationService,
			service.NewSubscriptionStateService,
			service.NewReconciliationService,
			service.NewProductValidationService,
			service.NewUserService,

			webhook.NewHandler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHTTPClient(cfg *config.Configuration) httpclient.Client {
	return httpclient.NewClient(httpclient.ClientConfig{Timeout: cfg.Gateway.Timeout})
}

func provideStripeGateway(cfg *config.Configuration, c cache.Cache, logger *logger.Logger) stripeint.Gateway {
	return stripeint.NewCachedGateway(stripeint.NewClient(cfg, logger), c, cfg, logger)
}

func provideHandlers(
	logger *logger.Logger,
	stripeWebhooks *webhook.Handler,
	reconciliationService service.ReconciliationService,
	subscriptionStateService service.SubscriptionStateService,
	productValidationService service.ProductValidationService,
	registrationService service.RegistrationService,
	userService service.UserService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Webhook:      v1.NewWebhookHandler(stripeWebhooks, logger),
		Subscription: v1.NewSubscriptionHandler(reconciliationService, subscriptionStateService, logger),
		Product:      v1.NewProductHandler(productValidationService, logger),
		Registration: v1.NewRegistrationHandler(registrationService, logger),
		User:         v1.NewUserHandler(userService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger, authProvider auth.Provider) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger, authProvider)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	subscriber pubsub.PubSub,
	notificationService service.NotificationService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, subscriber, notificationService, log)
	case types.ModeAWSLambdaAPI:
		// notifications are delivered inline; the router would be frozen with the process
		startAWSLambdaAPI(lc, r)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

// startAWSLambdaAPI hands the engine to the Lambda runtime once every other start hook has run
func startAWSLambdaAPI(lc fx.Lifecycle, r *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ginLambda := ginadapter.New(r)
			go lambda.Start(ginLambda.ProxyWithContext)
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	subscriber pubsub.PubSub,
	notificationService service.NotificationService,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	notificationService.RegisterHandler(router, subscriber)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			return router.Close()
		},
	})
}
