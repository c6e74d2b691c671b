package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/notify"
	"github.com/Arch199/crontrack/user"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser() *user.User {
	return &user.User{
		ID:          id.NewUserID(),
		Name:        "ops",
		Email:       "ops@example.com",
		AlertMethod: user.MethodEmail,
	}
}

func TestChainOrder(t *testing.T) {
	var order []string

	mk := func(name string) notify.Middleware {
		return func(ctx context.Context, _ *user.User, next notify.Handler) error {
			order = append(order, name+":before")
			err := next(ctx)
			order = append(order, name+":after")
			return err
		}
	}

	chain := notify.Chain(mk("outer"), mk("inner"))
	err := chain(context.Background(), testUser(), func(context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestWrapDeliversThroughChannel(t *testing.T) {
	var sent int
	ch := notify.ChannelFunc(func(context.Context, *user.User, notify.Message) error {
		sent++
		return nil
	})

	wrapped := notify.Wrap(ch, notify.Logging(discardLogger()))
	if err := wrapped.Send(context.Background(), testUser(), notify.Message{Subject: "s"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
}

func TestRecoverConvertsPanic(t *testing.T) {
	ch := notify.ChannelFunc(func(context.Context, *user.User, notify.Message) error {
		panic("transport blew up")
	})

	wrapped := notify.Wrap(ch, notify.Recover(discardLogger()))
	err := wrapped.Send(context.Background(), testUser(), notify.Message{})
	if !errors.Is(err, crontrack.ErrDeliveryFailed) {
		t.Errorf("err = %v, want ErrDeliveryFailed", err)
	}
}

func TestTimeoutCancelsSlowSend(t *testing.T) {
	ch := notify.ChannelFunc(func(ctx context.Context, _ *user.User, _ notify.Message) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	wrapped := notify.Wrap(ch, notify.Timeout(20*time.Millisecond))

	start := time.Now()
	err := wrapped.Send(context.Background(), testUser(), notify.Message{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout did not bound the send")
	}
}

func TestRateLimitAbortsOnCancelledContext(t *testing.T) {
	ch := notify.ChannelFunc(func(context.Context, *user.User, notify.Message) error {
		return nil
	})

	// Burst 1: the first send drains the bucket, the second must wait and
	// then fail when the context is cancelled.
	wrapped := notify.Wrap(ch, notify.RateLimit(0.001, 1))

	if err := wrapped.Send(context.Background(), testUser(), notify.Message{}); err != nil {
		t.Fatalf("first send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := wrapped.Send(ctx, testUser(), notify.Message{})
	if !errors.Is(err, crontrack.ErrDeliveryFailed) {
		t.Errorf("err = %v, want ErrDeliveryFailed", err)
	}
}
