package service

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/suite"
	"github.com/vendora/vendora/internal/domain/registration"
	"github.com/vendora/vendora/internal/testutil"
	"github.com/vendora/vendora/internal/types"
)

type NotificationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *notificationService
	sender  *recordingSender
}

func TestNotificationService(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	svc, sender := newTestNotificationService(&s.BaseServiceTestSuite, newTestServiceParams(&s.BaseServiceTestSuite))
	s.service = svc.(*notificationService)
	s.sender = sender
}

func (s *NotificationServiceSuite) published() []*message.Message {
	return s.GetPubSub().GetMessages(s.GetConfig().Notifier.Topic)
}

func (s *NotificationServiceSuite) TestSetPasswordIsQueuedThenMailed() {
	reg := &registration.PendingRegistration{
		Email:    "carla.souza@example.com",
		PlanName: "Essencial",
		Token:    "tok_abc",
	}
	s.Require().NoError(s.service.PublishSetPassword(s.GetContext(), reg))

	msgs := s.published()
	s.Require().Len(msgs, 1)
	s.Equal(string(types.NotificationSetPassword), msgs[0].Metadata.Get("kind"))
	s.Empty(s.sender.Sent())

	s.Require().NoError(s.service.processMessage(msgs[0]))

	sent := s.sender.Sent()
	s.Require().Len(sent, 1)
	s.Equal("carla.souza@example.com", sent[0].To)
	s.Contains(sent[0].HTML, "https://app.vendora.test/definir-senha?token=tok_abc")
	s.Contains(sent[0].Text, "Essencial")
}

func (s *NotificationServiceSuite) TestMarketingTagIsPosted() {
	s.GetHTTPClient().RegisterResponse("/v1/tags", testutil.MockResponse{StatusCode: http.StatusOK, Body: []byte(`{}`)})

	s.Require().NoError(s.service.PublishMarketingTag(s.GetContext(), "rui@example.com", "reembolsado"))
	msgs := s.published()
	s.Require().Len(msgs, 1)

	s.Require().NoError(s.service.processMessage(msgs[0]))

	reqs := s.GetHTTPClient().Requests()
	s.Require().Len(reqs, 1)
	s.Equal(http.MethodPost, reqs[0].Method)
	s.Equal("Bearer mk_test", reqs[0].Headers["Authorization"])

	var body struct {
		Email string   `json:"email"`
		Tags  []string `json:"tags"`
	}
	s.Require().NoError(json.Unmarshal(reqs[0].Body, &body))
	s.Equal("rui@example.com", body.Email)
	s.Equal([]string{"reembolsado"}, body.Tags)
}

func (s *NotificationServiceSuite) TestMarketingOutageIsRetried() {
	s.GetHTTPClient().RegisterResponse("/v1/tags", testutil.MockResponse{StatusCode: http.StatusServiceUnavailable})

	s.Require().NoError(s.service.PublishMarketingTag(s.GetContext(), "rui@example.com", "reembolsado"))
	s.Error(s.service.processMessage(s.published()[0]))
}

func (s *NotificationServiceSuite) TestMalformedPayloadIsDropped() {
	s.NoError(s.service.processMessage(message.NewMessage("m1", []byte("{not json"))))
	s.NoError(s.service.processMessage(message.NewMessage("m2", []byte(`{"kind":"sms"}`))))
	s.Empty(s.sender.Sent())
}

// inlineService builds a notification service for the Lambda run mode
func (s *NotificationServiceSuite) inlineService() (NotificationService, *recordingSender) {
	cfg := *s.GetConfig()
	cfg.Deployment.Mode = types.ModeAWSLambdaAPI
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	params.Config = &cfg
	return newTestNotificationService(&s.BaseServiceTestSuite, params)
}

func (s *NotificationServiceSuite) TestLambdaModeMailsDuringTheRequest() {
	svc, sender := s.inlineService()

	err := svc.PublishSetPassword(s.GetContext(), &registration.PendingRegistration{
		Email:    "carla.souza@example.com",
		PlanName: "Essencial",
		Token:    "tok_abc",
	})
	s.Require().NoError(err)

	s.Empty(s.published())
	sent := sender.Sent()
	s.Require().Len(sent, 1)
	s.Contains(sent[0].HTML, "https://app.vendora.test/definir-senha?token=tok_abc")
}

func (s *NotificationServiceSuite) TestLambdaModeReturnsDeliveryFailure() {
	s.GetHTTPClient().RegisterResponse("/v1/tags", testutil.MockResponse{StatusCode: http.StatusServiceUnavailable})
	svc, _ := s.inlineService()

	err := svc.PublishMarketingTag(s.GetContext(), "rui@example.com", "reembolsado")
	s.Require().Error(err)
	s.Empty(s.published())
	s.Len(s.GetHTTPClient().Requests(), 1)
}
