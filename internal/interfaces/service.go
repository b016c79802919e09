package interfaces

import (
	"context"

	"github.com/vendora/vendora/internal/api/dto"
	"github.com/vendora/vendora/internal/domain/registration"
	"github.com/vendora/vendora/internal/pubsub"
	pubsubRouter "github.com/vendora/vendora/internal/pubsub/router"
)

// SubscriptionStateService applies provider events to the stored subscription state
type SubscriptionStateService interface {
	HandleCheckoutCompleted(ctx context.Context, in *dto.CheckoutCompletedInput) error
	HandleSubscriptionChanged(ctx context.Context, in *dto.SubscriptionChangedInput) error
	HandleSubscriptionDeleted(ctx context.Context, in *dto.SubscriptionDeletedInput) error
	HandleInvoicePaymentFailed(ctx context.Context, in *dto.InvoicePaymentFailedInput) error
	HandleChargeRefunded(ctx context.Context, in *dto.ChargeRefundedInput) error
	ListHistory(ctx context.Context, userID string, req *dto.ListSubscriptionHistoryRequest) (*dto.ListSubscriptionHistoryResponse, error)
}

// ReconciliationService pulls the provider's view of a user and realigns the stored state.
// It never fails; provider errors produce a free, unsubscribed answer.
type ReconciliationService interface {
	Reconcile(ctx context.Context, userID string) *dto.SubscriptionStatusResponse
}

// RegistrationService owns the deferred activation of pre-signup purchases
type RegistrationService interface {
	CreatePending(ctx context.Context, in *registration.PendingInput) (*registration.PendingRegistration, error)
	Activate(ctx context.Context, req *dto.ActivateRegistrationRequest) (*dto.ActivateRegistrationResponse, error)
}

// ProductValidationService checks a product id against its commerce platform
type ProductValidationService interface {
	ValidateProduct(ctx context.Context, req *dto.ValidateProductRequest) (*dto.ValidateProductResponse, error)
}

// NotificationService hands side effects to the message router
type NotificationService interface {
	PublishSetPassword(ctx context.Context, reg *registration.PendingRegistration) error
	PublishMarketingTag(ctx context.Context, email, tag string) error
	RegisterHandler(router *pubsubRouter.Router, subscriber pubsub.Subscriber)
}

type UserService interface {
	DeleteAccount(ctx context.Context, userID string) error
}
