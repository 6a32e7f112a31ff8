package notify

import (
	"context"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender sends a single text message. Implementations report failure
// through the Result, never through a panic or error return.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, body string) Result
}

// TwilioSender sends SMS through the Twilio REST API. A sender built
// without credentials stays usable and fails every send with a
// "not configured" result.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender returns a configured sender, or an unconfigured one when
// any credential is missing.
func NewTwilioSender(accountSID, authToken, fromNumber string) *TwilioSender {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return &TwilioSender{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: fromNumber}
}

// Configured reports whether the sender has transport credentials.
func (s *TwilioSender) Configured() bool {
	return s.client != nil
}

func (s *TwilioSender) SendSMS(_ context.Context, phone, body string) Result {
	if s.client == nil {
		return Result{Success: false, Message: "sms not configured", Channel: ChannelSMS}
	}
	if phone == "" {
		return Result{Success: false, Message: "recipient phone number is empty", Channel: ChannelSMS}
	}

	to := phone
	if !strings.HasPrefix(to, "+") {
		to = "+" + to
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return Result{Success: false, Message: err.Error(), Channel: ChannelSMS}
	}
	return Result{Success: true, Message: "sms sent", Channel: ChannelSMS}
}
