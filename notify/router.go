package notify

import (
	"context"
	"log/slog"

	"github.com/Arch199/crontrack/user"
)

// Disabled is the no-op channel: it reports success without attempting
// delivery. Users with alerts switched off route here.
type Disabled struct{}

// Send is a no-op success.
func (Disabled) Send(_ context.Context, _ *user.User, _ Message) error { return nil }

// Router selects a channel from the recipient's alert method. It is itself
// a Channel, so middleware wraps the routed send.
type Router struct {
	email  Channel
	sms    Channel
	logger *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the structured logger.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates a Router over the given email and SMS channels. Either
// may be nil; recipients whose method has no configured channel get the
// no-op path, logged at debug.
func NewRouter(email, sms Channel, opts ...RouterOption) *Router {
	r := &Router{email: email, sms: sms, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send routes to the channel matching the recipient's alert method.
func (r *Router) Send(ctx context.Context, recipient *user.User, msg Message) error {
	var ch Channel
	switch recipient.AlertMethod {
	case user.MethodEmail:
		ch = r.email
	case user.MethodSMS:
		ch = r.sms
	default:
		ch = Disabled{}
	}

	if ch == nil {
		r.logger.Debug("no channel configured for alert method",
			slog.String("user_id", recipient.ID.String()),
			slog.String("method", string(recipient.AlertMethod)),
		)
		ch = Disabled{}
	}
	return ch.Send(ctx, recipient, msg)
}
