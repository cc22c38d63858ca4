package email

import (
	"context"
	"fmt"
	"net/url"

	"github.com/inkwell/inkwell/internal/model"
)

// confirmationSubject is the subject line for confirmation messages.
const confirmationSubject = "Welcome!"

// Sender delivers a single message through the provider.
type Sender interface {
	SendEmail(ctx context.Context, recipient model.SubscriberEmail, subject, htmlBody, textBody string) error
}

// Dispatcher builds and sends subscription confirmation messages.
type Dispatcher struct {
	sender  Sender
	baseURL string
}

// NewDispatcher creates a Dispatcher. baseURL is the externally visible
// address confirmation links point at.
func NewDispatcher(sender Sender, baseURL string) *Dispatcher {
	return &Dispatcher{sender: sender, baseURL: baseURL}
}

// SendConfirmation sends the confirmation email for a new subscription.
// The HTML and plain-text bodies both carry the confirmation link.
func (d *Dispatcher) SendConfirmation(ctx context.Context, recipient model.SubscriberEmail, token string) error {
	link, err := ConfirmationLink(d.baseURL, token)
	if err != nil {
		return fmt.Errorf("building confirmation link: %w", err)
	}

	htmlBody := fmt.Sprintf(
		`Welcome to our newsletter!<br />Click <a href=%q>here</a> to confirm your subscription.`,
		link,
	)
	textBody := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.",
		link,
	)

	return d.sender.SendEmail(ctx, recipient, confirmationSubject, htmlBody, textBody)
}

// ConfirmationLink joins the base URL with the confirmation path and token.
func ConfirmationLink(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	u = u.JoinPath("subscriptions", "confirm")
	u.RawQuery = url.Values{"subscription_token": {token}}.Encode()

	return u.String(), nil
}
