package notify

import (
	"context"

	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/user"
)

// Message is a rendered alert ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// Site carries deployment metadata renderers may include in messages.
type Site struct {
	// Name labels the installation (e.g., "crontrack").
	Name string
	// BaseURL is the address of the surrounding CRUD UI, for deep links.
	BaseURL string
}

// Renderer produces the alert text for a missed job. The monitor treats it
// as opaque: content and templating live with the caller.
type Renderer func(j *job.Job, recipient *user.User, site Site) Message

// Channel attempts delivery of a rendered message to one recipient.
//
// Send must be bounded by the transport's own timeout and must never block
// indefinitely. Delivery problems are reported as errors wrapping
// crontrack.ErrDeliveryFailed; the monitor logs and isolates them per
// recipient.
type Channel interface {
	Send(ctx context.Context, recipient *user.User, msg Message) error
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(ctx context.Context, recipient *user.User, msg Message) error

// Send calls f.
func (f ChannelFunc) Send(ctx context.Context, recipient *user.User, msg Message) error {
	return f(ctx, recipient, msg)
}
