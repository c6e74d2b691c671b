// Package notify fans alert messages out to recipients over pluggable
// channels.
//
// A [Channel] attempts delivery of one rendered [Message] to one recipient.
// Three implementations ship here: [Email] (SendGrid), [SMS] (JSON webhook
// gateway, E.164-validated numbers), and [Disabled] (no-op success).
// [Router] is itself a Channel that picks between them from the recipient's
// alert method.
//
// Channels compose with [Middleware] — use [Wrap] to layer logging, panic
// recovery, per-send timeouts, and rate limiting around any channel:
//
//	ch := notify.Wrap(router,
//	    notify.Logging(logger),
//	    notify.Recover(logger),
//	    notify.Timeout(15*time.Second),
//	)
//
// Message content is produced by an injected [Renderer]; this package never
// does its own templating.
package notify
