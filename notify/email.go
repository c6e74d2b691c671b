package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/user"
)

// emailSender is the slice of the SendGrid client Email depends on.
// Narrowed to an interface so tests can stub the transport.
type emailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Email delivers alerts through SendGrid.
type Email struct {
	client emailSender
	from   *mail.Email
	logger *slog.Logger
}

// EmailOption configures an Email channel.
type EmailOption func(*Email)

// WithEmailLogger sets the structured logger.
func WithEmailLogger(l *slog.Logger) EmailOption {
	return func(e *Email) { e.logger = l }
}

// NewEmail creates an Email channel. fromName/fromAddr identify the sender
// on every alert.
func NewEmail(apiKey, fromName, fromAddr string, opts ...EmailOption) *Email {
	e := &Email{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddr),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send delivers msg to the recipient's email address. The context bounds
// the transport call; timeouts and API rejections come back wrapping
// crontrack.ErrDeliveryFailed.
func (e *Email) Send(ctx context.Context, recipient *user.User, msg Message) error {
	if recipient.Email == "" {
		return fmt.Errorf("%w: user %s has no email address", crontrack.ErrDeliveryFailed, recipient.ID)
	}

	to := mail.NewEmail(recipient.Name, recipient.Email)
	email := mail.NewSingleEmail(e.from, msg.Subject, to, msg.Body, msg.Body)

	resp, err := e.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: email to %s: %v", crontrack.ErrDeliveryFailed, recipient.Email, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: email to %s: sendgrid status %d", crontrack.ErrDeliveryFailed, recipient.Email, resp.StatusCode)
	}

	e.logger.Debug("email sent",
		slog.String("user_id", recipient.ID.String()),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}
