package models

import (
	"database/sql"
	"time"
)

// TemplateType declares which channels a template is written for.
type TemplateType string

const (
	TemplateEmail TemplateType = "email"
	TemplateSMS   TemplateType = "sms"
	TemplateBoth  TemplateType = "both"
)

// SupportsEmail reports whether the template carries an email rendition.
func (t TemplateType) SupportsEmail() bool {
	return t == TemplateEmail || t == TemplateBoth
}

// SupportsSMS reports whether the template carries an SMS rendition.
func (t TemplateType) SupportsSMS() bool {
	return t == TemplateSMS || t == TemplateBoth
}

// NotificationTemplate represents a row of notification_templates.
// Templates are authored externally; this service only reads and renders.
type NotificationTemplate struct {
	TemplateID int64        `db:"template_id" json:"template_id"`
	Name       string       `db:"name" json:"name"`
	Subject    string       `db:"subject" json:"subject"`
	EmailBody  string       `db:"email_body" json:"email_body"`
	SMSBody    string       `db:"sms_body" json:"sms_body"`
	Type       TemplateType `db:"type" json:"type"`
	IsActive   bool         `db:"is_active" json:"is_active"`
	UpdatedAt  sql.NullTime `db:"updated_at" json:"updated_at"`
}

// Channel is a delivery medium for a rendered notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// Recipient is one resolved escalation target with the contact channels
// the identity subsystem knows for them.
type Recipient struct {
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// DispatchOutcome is the terminal state of one recipient/channel attempt.
type DispatchOutcome string

const (
	DispatchSent    DispatchOutcome = "sent"
	DispatchFailed  DispatchOutcome = "failed"
	DispatchSkipped DispatchOutcome = "skipped"
)

// DispatchRecord is the append-only audit row for a single
// recipient/channel attempt. Never mutated after insert.
type DispatchRecord struct {
	RecordID     int64           `db:"record_id" json:"record_id"`
	Reference    string          `db:"reference" json:"reference"`
	LogID        sql.NullInt64   `db:"log_id" json:"log_id"`
	UserID       int64           `db:"user_id" json:"user_id"`
	Recipient    string          `db:"recipient" json:"recipient"`
	Channel      Channel         `db:"channel" json:"channel"`
	TemplateName string          `db:"template_name" json:"template_name"`
	Variables    sql.NullString  `db:"variables" json:"variables"` // JSON snapshot
	Outcome      DispatchOutcome `db:"outcome" json:"outcome"`
	Detail       sql.NullString  `db:"detail" json:"detail"` // failure reason / skip note
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// InAppNotification is a row of inapp_notifications, the persisted
// channel's store.
type InAppNotification struct {
	NotificationID int64        `db:"notification_id" json:"notification_id"`
	UserID         int64        `db:"user_id" json:"user_id"`
	Subject        string       `db:"subject" json:"subject"`
	Body           string       `db:"body" json:"body"`
	TemplateName   string       `db:"template_name" json:"template_name"`
	ReadAt         sql.NullTime `db:"read_at" json:"read_at"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// DispatchSummary aggregates one fan-out invocation. Per-recipient
// failures land here, not in an error return.
type DispatchSummary struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Add folds another summary into this one.
func (s *DispatchSummary) Add(other DispatchSummary) {
	s.Attempted += other.Attempted
	s.Sent += other.Sent
	s.Failed += other.Failed
	s.Skipped += other.Skipped
}

// Count tallies one attempt by its outcome.
func (s *DispatchSummary) Count(outcome DispatchOutcome) {
	s.Attempted++
	switch outcome {
	case DispatchSent:
		s.Sent++
	case DispatchFailed:
		s.Failed++
	case DispatchSkipped:
		s.Skipped++
	}
}
