package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"caseguard/models"
)

// Message is one rendered notification addressed for a single channel.
type Message struct {
	UserID       int64
	Address      string // email address or normalized phone; unused in-app
	Subject      string
	Body         string
	TemplateName string
}

// Sender is the interface for channel senders. One send is one attempt:
// redelivery, if wanted, belongs to an external queue, so senders never
// retry internally.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	Channel() models.Channel
	Validate(msg *Message) error
}

// EmailSender sends email through SendGrid. Without an API key it is a
// no-op, which keeps local development from needing outbound mail.
type EmailSender struct {
	apiKey string
}

// NewEmailSender creates an email sender (reads SENDGRID_API_KEY,
// SENDGRID_FROM_EMAIL, SENDGRID_FROM_NAME from env).
func NewEmailSender() *EmailSender {
	return &EmailSender{apiKey: os.Getenv("SENDGRID_API_KEY")}
}

// Channel returns the email channel type
func (s *EmailSender) Channel() models.Channel {
	return models.ChannelEmail
}

// Validate validates an email message
func (s *EmailSender) Validate(msg *Message) error {
	if msg.Address == "" {
		return ErrInvalidRecipient
	}
	return nil
}

// Send sends an email. The context deadline set by the dispatcher bounds
// the call.
func (s *EmailSender) Send(ctx context.Context, msg *Message) error {
	if err := s.Validate(msg); err != nil {
		return err
	}
	if s.apiKey == "" {
		return nil
	}
	return s.sendViaSendGrid(ctx, msg)
}

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

func (s *EmailSender) sendViaSendGrid(ctx context.Context, msg *Message) error {
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = "noreply@guncrime.gov.gh"
	}
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "Gun & Crime Monitoring"
	}
	body := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]interface{}{{"email": msg.Address}}},
		},
		"from":    map[string]string{"email": fromEmail, "name": fromName},
		"subject": msg.Subject,
		"content": []map[string]string{{"type": "text/html", "value": msg.Body}},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendGridURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("sendgrid status %d", resp.StatusCode)
}

// SMSSender sends SMS through an Arkesel-style gateway. The dispatcher
// normalizes the number before it reaches here.
type SMSSender struct {
	apiURL   string
	apiKey   string
	senderID string
}

// NewSMSSender creates an SMS sender for the configured gateway.
func NewSMSSender(apiURL, apiKey, senderID string) *SMSSender {
	return &SMSSender{apiURL: apiURL, apiKey: apiKey, senderID: senderID}
}

// Channel returns the SMS channel type
func (s *SMSSender) Channel() models.Channel {
	return models.ChannelSMS
}

// Validate validates an SMS message
func (s *SMSSender) Validate(msg *Message) error {
	if msg.Address == "" {
		return ErrInvalidRecipient
	}
	return nil
}

// Send sends an SMS. Without an API key it is a no-op.
func (s *SMSSender) Send(ctx context.Context, msg *Message) error {
	if err := s.Validate(msg); err != nil {
		return err
	}
	if s.apiKey == "" {
		return nil
	}

	body := map[string]string{
		"api_key": s.apiKey,
		"to":      msg.Address,
		"from":    s.senderID,
		"sms":     msg.Body,
		"type":    "plain",
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("sms gateway status %d", resp.StatusCode)
}

// InAppStore persists in-app notifications.
type InAppStore interface {
	CreateInAppNotification(n *models.InAppNotification) error
}

// InAppSender delivers by writing a row the recipient's client reads
// later. Every resolved recipient has this channel.
type InAppSender struct {
	store InAppStore
}

// NewInAppSender creates an in-app sender backed by store.
func NewInAppSender(store InAppStore) *InAppSender {
	return &InAppSender{store: store}
}

// Channel returns the in-app channel type
func (s *InAppSender) Channel() models.Channel {
	return models.ChannelInApp
}

// Validate validates an in-app message
func (s *InAppSender) Validate(msg *Message) error {
	if msg.UserID == 0 {
		return ErrInvalidRecipient
	}
	return nil
}

// Send persists the notification row.
func (s *InAppSender) Send(ctx context.Context, msg *Message) error {
	if err := s.Validate(msg); err != nil {
		return err
	}
	return s.store.CreateInAppNotification(&models.InAppNotification{
		UserID:       msg.UserID,
		Subject:      msg.Subject,
		Body:         msg.Body,
		TemplateName: msg.TemplateName,
	})
}

// Errors
var (
	ErrInvalidRecipient   = &SendError{Message: "invalid recipient"}
	ErrUnsupportedChannel = &SendError{Message: "unsupported channel"}
)

// SendError represents a channel send error
type SendError struct {
	Message string
	Err     error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SendError) Unwrap() error {
	return e.Err
}
