package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/user"
)

// smsPayload is the JSON body posted to the SMS gateway.
type smsPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// SMS delivers alerts as text messages through an HTTP gateway that accepts
// a JSON {to, body} POST. Recipients must have a valid E.164 phone number;
// invalid numbers fail before any network call.
type SMS struct {
	gatewayURL string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// SMSOption configures an SMS channel.
type SMSOption func(*SMS)

// WithSMSTimeout sets the transport timeout. Defaults to 10s.
func WithSMSTimeout(d time.Duration) SMSOption {
	return func(s *SMS) { s.httpClient.Timeout = d }
}

// WithSMSLogger sets the structured logger.
func WithSMSLogger(l *slog.Logger) SMSOption {
	return func(s *SMS) { s.logger = l }
}

// NewSMS creates an SMS channel posting to gatewayURL with a bearer apiKey.
func NewSMS(gatewayURL, apiKey string, opts ...SMSOption) *SMS {
	s := &SMS{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidatePhone checks that number is a valid E.164 phone number
// (leading +, country code, no formatting).
func ValidatePhone(number string) error {
	if number == "" {
		return fmt.Errorf("notify: empty phone number")
	}
	// Parsing with no default region forces the E.164 "+<country>" form.
	parsed, err := phonenumbers.Parse(number, "")
	if err != nil {
		return fmt.Errorf("notify: phone %q is not E.164: %w", number, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return fmt.Errorf("notify: phone %q is not a valid number", number)
	}
	return nil
}

// Send delivers msg to the recipient's phone. SMS has no subject line; only
// the body is sent.
func (s *SMS) Send(ctx context.Context, recipient *user.User, msg Message) error {
	if err := ValidatePhone(recipient.Phone); err != nil {
		return fmt.Errorf("%w: %v", crontrack.ErrDeliveryFailed, err)
	}

	payload, err := json.Marshal(smsPayload{To: recipient.Phone, Body: msg.Body})
	if err != nil {
		return fmt.Errorf("%w: marshal sms payload: %v", crontrack.ErrDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build sms request: %v", crontrack.ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sms to %s: %v", crontrack.ErrDeliveryFailed, recipient.Phone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: sms to %s: gateway status %d", crontrack.ErrDeliveryFailed, recipient.Phone, resp.StatusCode)
	}

	s.logger.Debug("sms sent",
		slog.String("user_id", recipient.ID.String()),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}
