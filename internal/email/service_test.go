package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/vendora/internal/logger"
)

type recordingSender struct {
	enabled bool
	sent    []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) (string, error) {
	r.sent = append(r.sent, msg)
	return "msg_1", nil
}

func (r *recordingSender) IsEnabled() bool { return r.enabled }

func TestSendSetPassword(t *testing.T) {
	sender := &recordingSender{enabled: true}
	svc := NewEmail(sender, logger.NewNopLogger())

	err := svc.SendSetPassword(context.Background(), "maria@example.com", SetPasswordData{
		PlanName: "Essencial",
		Link:     "https://app.example.com/activate?token=abc",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "maria@example.com", msg.To)
	assert.Contains(t, msg.HTML, "Essencial")
	assert.Contains(t, msg.HTML, "https://app.example.com/activate?token=abc")
	assert.Contains(t, msg.Text, "Olá maria,")
}

func TestSendSetPassword_DisabledIsNoop(t *testing.T) {
	sender := &recordingSender{enabled: false}
	svc := NewEmail(sender, logger.NewNopLogger())

	require.NoError(t, svc.SendSetPassword(context.Background(), "a@example.com", SetPasswordData{}))
	assert.Empty(t, sender.sent)
}

func TestExtractNameFromEmail(t *testing.T) {
	assert.Equal(t, "john.doe", ExtractNameFromEmail("john.doe@example.com"))
	assert.Equal(t, "there", ExtractNameFromEmail("@example.com"))
}
