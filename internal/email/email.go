// Package email is the best-effort notification sink. A failure here must
// never invalidate an otherwise-successful order; callers log and swallow
// errors.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Message is one transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Provider dispatches transactional email.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// ResendProvider sends through the Resend API.
type ResendProvider struct {
	client *resend.Client
	from   string
}

// NewResendProvider creates a provider with the given API key and sender.
func NewResendProvider(apiKey, from string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (p *ResendProvider) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    p.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	if _, err := p.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("email: failed to send via resend: %w", err)
	}
	return nil
}

// NopProvider discards messages. Used when no email credentials are
// configured.
type NopProvider struct{}

func (NopProvider) Send(ctx context.Context, msg Message) error {
	return nil
}
