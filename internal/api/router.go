package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/vendora/vendora/internal/api/v1"
	"github.com/vendora/vendora/internal/auth"
	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/rest/middleware"
	"github.com/vendora/vendora/internal/types"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Webhook      *v1.WebhookHandler
	Subscription *v1.SubscriptionHandler
	Product      *v1.ProductHandler
	Registration *v1.RegistrationHandler
	User         *v1.UserHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, authProvider auth.Provider) *gin.Engine {
	if cfg.Logging.Level != types.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.SentryScopeMiddleware,
		middleware.LoggingMiddleware(logger),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	public := router.Group("/v1")

	// provider deliveries are authenticated by signature, not by bearer token
	public.POST("/webhooks/stripe", handlers.Webhook.HandleStripeWebhook)
	public.POST("/products/validate", handlers.Product.ValidateProduct)
	public.POST("/registrations/activate", handlers.Registration.Activate)

	private := router.Group("/v1")
	private.Use(
		middleware.AuthenticateMiddleware(authProvider, logger),
		middleware.SentryScopeMiddleware,
	)

	subscription := private.Group("/subscription")
	{
		subscription.POST("/check", handlers.Subscription.CheckSubscription)
		subscription.GET("/history", handlers.Subscription.ListHistory)
	}

	private.DELETE("/account", handlers.User.DeleteAccount)

	return router
}
