package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/vendora/vendora/internal/api/dto"
	"github.com/vendora/vendora/internal/domain/plan"
	"github.com/vendora/vendora/internal/domain/registration"
	"github.com/vendora/vendora/internal/domain/subscriptionstate"
	"github.com/vendora/vendora/internal/domain/user"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/interfaces"
	"github.com/vendora/vendora/internal/types"
)

type RegistrationService = interfaces.RegistrationService

type registrationService struct {
	ServiceParams
	writer        *stateWriter
	notifications interfaces.NotificationService
}

func NewRegistrationService(params ServiceParams, notifications interfaces.NotificationService) RegistrationService {
	return &registrationService{
		ServiceParams: params,
		writer:        newStateWriter(params),
		notifications: notifications,
	}
}

// CreatePending parks a purchase made before signup and queues the set-password email.
// Redeliveries keep the original token; a duplicate delivery of the same event does not
// send the email twice.
func (s *registrationService) CreatePending(ctx context.Context, in *registration.PendingInput) (*registration.PendingRegistration, error) {
	reg, err := registration.New(in.Email)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to generate activation token").
			Mark(ierr.ErrSystem)
	}

	duplicate := false
	existing, err := s.RegistrationRepo.GetByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		duplicate = in.EventID != "" && lo.FromPtr(existing.ExternalEventID) == in.EventID
	case !ierr.IsNotFound(err):
		return nil, err
	}

	reg.PlanID = in.PlanID
	if in.PlanID == nil {
		reg.UnmappedPriceID = lo.EmptyableToPtr(in.PriceID)
	}
	reg.PlanName = in.PlanName
	reg.ExternalCustomerID = lo.EmptyableToPtr(in.CustomerID)
	reg.ExternalSubscriptionID = lo.EmptyableToPtr(in.SubscriptionID)
	reg.ExternalEventID = lo.EmptyableToPtr(in.EventID)

	stored, err := s.RegistrationRepo.UpsertByEmail(ctx, reg)
	if err != nil {
		return nil, err
	}

	if stored.IsUsed() {
		s.Logger.Warnw("pending registration already redeemed, not notifying",
			"registration_id", stored.ID,
			"event_id", in.EventID,
		)
		return stored, nil
	}
	if duplicate {
		s.Logger.Infow("duplicate checkout delivery for pending registration",
			"registration_id", stored.ID,
			"event_id", in.EventID,
		)
		return stored, nil
	}

	// the registration is durable; a lost email can be re-sent, so queueing never fails the caller
	if err := s.notifications.PublishSetPassword(ctx, stored); err != nil {
		s.Logger.Errorw("failed to queue set-password email",
			"registration_id", stored.ID,
			"error", err,
		)
		s.Sentry.CaptureException(err)
	}

	s.Logger.Infow("pending registration stored",
		"registration_id", stored.ID,
		"plan_name", stored.PlanName,
		"event_id", in.EventID,
	)
	return stored, nil
}

// Activate redeems a set-password token: it creates the account and attaches the purchase
// in one transaction.
func (s *registrationService) Activate(ctx context.Context, req *dto.ActivateRegistrationRequest) (*dto.ActivateRegistrationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.Auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var (
		created *user.User
		reg     *registration.PendingRegistration
	)

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		reg, err = s.RegistrationRepo.GetByToken(ctx, req.Token)
		if err != nil {
			if ierr.IsNotFound(err) {
				return invalidActivationToken()
			}
			return err
		}
		if reg.IsUsed() {
			return invalidActivationToken()
		}

		redeemed, err := s.RegistrationRepo.MarkUsed(ctx, reg.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !redeemed {
			return invalidActivationToken()
		}

		created = user.NewUser(reg.Email, hash)
		if err := s.UserRepo.Create(ctx, created); err != nil {
			if ierr.IsAlreadyExists(err) {
				return ierr.WithError(err).
					WithHint("An account with this email already exists, sign in instead").
					Mark(ierr.ErrAlreadyExists)
			}
			return err
		}

		_, err = s.writer.apply(ctx, transition{
			userID:      created.ID,
			eventType:   types.HistoryEventSubscribe,
			source:      types.HistorySourceWebhook,
			eventID:     lo.FromPtr(reg.ExternalEventID),
			newPlanName: reg.PlanName,
			mutate: func(_, next *subscriptionstate.SubscriptionState) step {
				switch {
				case reg.PlanID != nil:
					next.AssignPlan(*reg.PlanID)
				case reg.UnmappedPriceID != nil:
					next.AssignUnmappedPrice(*reg.UnmappedPriceID)
				}
				if reg.ExternalSubscriptionID != nil {
					next.AttachExternal(lo.FromPtr(reg.ExternalCustomerID), *reg.ExternalSubscriptionID)
				}
				next.IsActive = true
				next.BypassExternalCheck = false
				return stepWrite
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	token, err := s.Auth.GenerateToken(created.ID, created.Email)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("pending registration activated",
		"registration_id", reg.ID,
		"user_id", created.ID,
	)

	return &dto.ActivateRegistrationResponse{
		UserID:      created.ID,
		Email:       created.Email,
		PlanName:    lo.Ternary(reg.PlanID == nil && reg.UnmappedPriceID != nil, plan.UnknownPlanName, s.Catalog.PlanName(reg.PlanID)),
		AccessToken: token,
	}, nil
}

func invalidActivationToken() error {
	return ierr.NewError("activation token is invalid or already used").
		WithHint("This link is invalid or was already used").
		Mark(ierr.ErrInvalidOperation)
}
