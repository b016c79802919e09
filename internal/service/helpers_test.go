package service

import (
	"context"
	"sync"

	"github.com/vendora/vendora/internal/email"
	"github.com/vendora/vendora/internal/integration/marketing"
	"github.com/vendora/vendora/internal/testutil"
)

// recordingSender captures outbound emails instead of calling Resend
type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
}

func (r *recordingSender) Send(_ context.Context, msg email.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return "msg_test", nil
}

func (r *recordingSender) IsEnabled() bool { return true }

func (r *recordingSender) Sent() []email.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]email.Message(nil), r.sent...)
}

func newTestServiceParams(b *testutil.BaseServiceTestSuite) ServiceParams {
	stores := b.GetStores()
	return NewServiceParams(
		b.GetLogger(),
		b.GetConfig(),
		b.GetDB(),
		b.GetSentry(),
		stores.UserRepo,
		stores.SubscriptionStateRepo,
		stores.SubscriptionHistoryRepo,
		stores.RegistrationRepo,
		b.GetCatalog(),
		b.GetStripe(),
		b.GetAuth(),
		b.GetPubSub(),
		b.GetHTTPClient(),
	)
}

// newTestNotificationService wires the real notification service to a recording mailer
// and a marketing client on the mock HTTP client
func newTestNotificationService(b *testutil.BaseServiceTestSuite, params ServiceParams) (NotificationService, *recordingSender) {
	sender := &recordingSender{}
	mailer := email.NewEmail(sender, b.GetLogger())
	mk := marketing.NewClient(b.GetConfig(), b.GetHTTPClient(), b.GetLogger())
	return NewNotificationService(params, mailer, mk), sender
}
