package notify_test

import (
	"context"
	"testing"

	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/notify"
	"github.com/Arch199/crontrack/user"
)

// countingChannel records sends.
type countingChannel struct{ sent int }

func (c *countingChannel) Send(context.Context, *user.User, notify.Message) error {
	c.sent++
	return nil
}

func TestRouterPicksMethodChannel(t *testing.T) {
	tests := []struct {
		method    user.AlertMethod
		wantEmail int
		wantSMS   int
	}{
		{user.MethodEmail, 1, 0},
		{user.MethodSMS, 0, 1},
		{user.MethodDisabled, 0, 0},
		{"", 0, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			email := &countingChannel{}
			sms := &countingChannel{}
			router := notify.NewRouter(email, sms, notify.WithRouterLogger(discardLogger()))

			u := &user.User{ID: id.NewUserID(), AlertMethod: tt.method}
			if err := router.Send(context.Background(), u, notify.Message{}); err != nil {
				t.Fatalf("Send: %v", err)
			}

			if email.sent != tt.wantEmail || sms.sent != tt.wantSMS {
				t.Errorf("email=%d sms=%d, want email=%d sms=%d",
					email.sent, sms.sent, tt.wantEmail, tt.wantSMS)
			}
		})
	}
}

func TestRouterMissingChannelIsNoOp(t *testing.T) {
	router := notify.NewRouter(nil, nil, notify.WithRouterLogger(discardLogger()))

	u := &user.User{ID: id.NewUserID(), AlertMethod: user.MethodEmail}
	if err := router.Send(context.Background(), u, notify.Message{}); err != nil {
		t.Errorf("Send with no configured channel: %v", err)
	}
}

func TestDisabledAlwaysSucceeds(t *testing.T) {
	u := &user.User{ID: id.NewUserID(), AlertMethod: user.MethodDisabled}
	if err := (notify.Disabled{}).Send(context.Background(), u, notify.Message{}); err != nil {
		t.Errorf("Disabled.Send: %v", err)
	}
}
