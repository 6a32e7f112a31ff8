package notify

import (
	"context"

	"github.com/resend/resend-go/v2"
)

// EmailSender sends a single HTML email. Same failure contract as SMSSender.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) Result
}

// ResendSender sends transactional email through Resend.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns a configured sender, or an unconfigured one when
// the API key is missing.
func NewResendSender(apiKey, fromEmail string) *ResendSender {
	if apiKey == "" {
		return &ResendSender{}
	}
	if fromEmail == "" {
		fromEmail = "reminders@medpal.health"
	}
	return &ResendSender{client: resend.NewClient(apiKey), from: fromEmail}
}

// Configured reports whether the sender has transport credentials.
func (s *ResendSender) Configured() bool {
	return s.client != nil
}

func (s *ResendSender) SendEmail(ctx context.Context, to, subject, htmlBody string) Result {
	if s.client == nil {
		return Result{Success: false, Message: "email not configured", Channel: ChannelEmail}
	}
	if to == "" {
		return Result{Success: false, Message: "recipient email address is empty", Channel: ChannelEmail}
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return Result{Success: false, Message: err.Error(), Channel: ChannelEmail}
	}
	return Result{Success: true, Message: "email sent", Channel: ChannelEmail}
}
