package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/user"
)

// Handler is the terminal function that performs a delivery.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic around a send.
// It receives the current context, the recipient, and the next handler to
// call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware func(ctx context.Context, recipient *user.User, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the list is
// the outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, recipient *user.User, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, recipient, prev)
			}
		}
		return h(ctx)
	}
}

// Wrap applies a middleware chain around a Channel, yielding a new Channel.
func Wrap(ch Channel, mws ...Middleware) Channel {
	chain := Chain(mws...)
	return ChannelFunc(func(ctx context.Context, recipient *user.User, msg Message) error {
		return chain(ctx, recipient, func(ctx context.Context) error {
			return ch.Send(ctx, recipient, msg)
		})
	})
}

// Logging returns middleware that logs send attempts and outcomes.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, recipient *user.User, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("alert delivery failed",
				slog.String("user_id", recipient.ID.String()),
				slog.String("method", string(recipient.AlertMethod)),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("alert delivered",
				slog.String("user_id", recipient.ID.String()),
				slog.String("method", string(recipient.AlertMethod)),
				slog.Duration("elapsed", elapsed),
			)
		}
		return err
	}
}

// Recover returns middleware that recovers from panics in the send path.
// Panics are converted to DeliveryFailed errors and logged with a stack
// trace, so one misbehaving transport never takes down the monitor loop.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, recipient *user.User, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("send panicked",
					slog.String("user_id", recipient.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("%w: panic in send to %s: %v", crontrack.ErrDeliveryFailed, recipient.ID, r)
			}
		}()
		return next(ctx)
	}
}

// Timeout returns middleware that enforces a per-send deadline on top of
// whatever timeout the transport itself carries. A zero duration disables
// the wrapper.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *user.User, next Handler) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}

// RateLimit returns middleware that throttles sends through a shared token
// bucket, protecting downstream providers during a mass outage. Waits for a
// token; a cancelled context aborts the wait.
func RateLimit(perSecond float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(ctx context.Context, _ *user.User, next Handler) error {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", crontrack.ErrDeliveryFailed, err)
		}
		return next(ctx)
	}
}
