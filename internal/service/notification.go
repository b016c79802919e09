package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/vendora/vendora/internal/domain/registration"
	"github.com/vendora/vendora/internal/email"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/integration/marketing"
	"github.com/vendora/vendora/internal/interfaces"
	"github.com/vendora/vendora/internal/pubsub"
	pubsubRouter "github.com/vendora/vendora/internal/pubsub/router"
	"github.com/vendora/vendora/internal/types"
)

type NotificationService = interfaces.NotificationService

// Notification is the payload of a queued side effect
type Notification struct {
	ID       string                 `json:"id"`
	Kind     types.NotificationKind `json:"kind"`
	Email    string                 `json:"email"`
	PlanName string                 `json:"plan_name,omitempty"`
	Token    string                 `json:"token,omitempty"`
	Tag      string                 `json:"tag,omitempty"`
}

type notificationService struct {
	ServiceParams
	mailer    *email.Email
	marketing marketing.Client
}

func NewNotificationService(params ServiceParams, mailer *email.Email, marketing marketing.Client) NotificationService {
	return &notificationService{
		ServiceParams: params,
		mailer:        mailer,
		marketing:     marketing,
	}
}

func (s *notificationService) PublishSetPassword(ctx context.Context, reg *registration.PendingRegistration) error {
	return s.publish(ctx, &Notification{
		Kind:     types.NotificationSetPassword,
		Email:    reg.Email,
		PlanName: reg.PlanName,
		Token:    reg.Token,
	})
}

func (s *notificationService) PublishMarketingTag(ctx context.Context, email, tag string) error {
	return s.publish(ctx, &Notification{
		Kind:  types.NotificationMarketingTag,
		Email: email,
		Tag:   tag,
	})
}

// deliversInline reports whether side effects run during the request. A Lambda process is
// frozen between invocations, so queued messages could sit undelivered.
func (s *notificationService) deliversInline() bool {
	return s.Config.Notifier.Inline || s.Config.Deployment.Mode == types.ModeAWSLambdaAPI
}

func (s *notificationService) publish(ctx context.Context, n *Notification) error {
	n.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION)

	if s.deliversInline() {
		s.Logger.Debugw("delivering notification inline", "notification_id", n.ID, "kind", n.Kind)
		if err := s.deliver(ctx, n); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to deliver notification").
				Mark(ierr.ErrSystem)
		}
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal notification").
			Mark(ierr.ErrValidation)
	}

	msg := message.NewMessage(n.ID, payload)
	msg.Metadata.Set("kind", string(n.Kind))
	if requestID := types.GetRequestID(ctx); requestID != "" {
		middleware.SetCorrelationID(requestID, msg)
	}

	topic := s.Config.Notifier.Topic
	s.Logger.Debugw("publishing notification",
		"notification_id", n.ID,
		"kind", n.Kind,
		"topic", topic,
	)

	if err := s.Publisher.Publish(ctx, topic, msg); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to queue notification").
			Mark(ierr.ErrSystem)
	}
	return nil
}

// RegisterHandler consumes queued notifications off the request path
func (s *notificationService) RegisterHandler(router *pubsubRouter.Router, subscriber pubsub.Subscriber) {
	router.AddNoPublishHandler(
		"notification_handler",
		s.Config.Notifier.Topic,
		subscriber,
		s.processMessage,
	)

	s.Logger.Infow("registered notification handler", "topic", s.Config.Notifier.Topic)
}

func (s *notificationService) processMessage(msg *message.Message) error {
	var n Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		s.Logger.Errorw("failed to unmarshal notification",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	return s.deliver(msg.Context(), &n)
}

// deliver performs the side effect described by n
func (s *notificationService) deliver(ctx context.Context, n *Notification) error {
	switch n.Kind {
	case types.NotificationSetPassword:
		return s.mailer.SendSetPassword(ctx, n.Email, email.SetPasswordData{
			Name:     email.ExtractNameFromEmail(n.Email),
			PlanName: n.PlanName,
			Link:     s.setPasswordLink(n.Token),
		})
	case types.NotificationMarketingTag:
		return s.marketing.AddTag(ctx, n.Email, n.Tag)
	default:
		s.Logger.Warnw("unknown notification kind, dropping", "kind", n.Kind, "notification_id", n.ID)
		return nil
	}
}

func (s *notificationService) setPasswordLink(token string) string {
	base := strings.TrimRight(s.Config.App.BaseURL, "/")
	return base + "/definir-senha?" + url.Values{"token": {token}}.Encode()
}
