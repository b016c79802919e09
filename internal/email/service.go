package email

import (
	"bytes"
	"context"
	"embed"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/logger"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

// SetPasswordData fills the account activation email
type SetPasswordData struct {
	Name     string
	PlanName string
	Link     string
}

// Email renders and sends the transactional emails of the billing flow
type Email struct {
	sender Sender
	logger *logger.Logger
}

func NewEmail(sender Sender, logger *logger.Logger) *Email {
	return &Email{sender: sender, logger: logger}
}

// SendSetPassword sends the "set your password" email to a payer without an account.
// A disabled sender is a no-op.
func (s *Email) SendSetPassword(ctx context.Context, to string, data SetPasswordData) error {
	if !s.sender.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", to,
			"template", "set_password",
		)
		return nil
	}

	if data.Name == "" {
		data.Name = ExtractNameFromEmail(to)
	}

	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, "set_password.html", data); err != nil {
		return ierr.WithError(err).WithHint("Failed to render email").Mark(ierr.ErrSystem)
	}
	if err := textTemplates.ExecuteTemplate(&text, "set_password.txt", data); err != nil {
		return ierr.WithError(err).WithHint("Failed to render email").Mark(ierr.ErrSystem)
	}

	messageID, err := s.sender.Send(ctx, Message{
		To:      to,
		Subject: "Defina sua senha para acessar sua assinatura",
		HTML:    html.String(),
		Text:    text.String(),
	})
	if err != nil {
		s.logger.Errorw("failed to send email", "error", err, "to", to)
		return err
	}

	s.logger.Infow("email sent successfully",
		"message_id", messageID,
		"to", to,
		"template", "set_password",
	)
	return nil
}

// ExtractNameFromEmail extracts the name part from an email address
// e.g., "john.doe@example.com" -> "john.doe"
func ExtractNameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	if name == "" {
		return "there"
	}
	return name
}
