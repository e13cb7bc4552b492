package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseguard/models"
	"caseguard/notification"
	"caseguard/template"
)

func delivery(userID int64, name, email, phone string) Delivery {
	return Delivery{
		Recipient: models.Recipient{UserID: userID, Name: name, Email: email, PhoneNumber: phone},
		Rendered: template.Rendered{
			Subject:   "Escalation",
			EmailBody: "Case needs attention",
			SMSBody:   "Case needs attention",
		},
		Variables: map[string]string{"user_name": name},
	}
}

func newTestDispatcher(sink *recordingSink, senders ...notification.Sender) *Dispatcher {
	return NewDispatcher(senders, sink, 4, time.Second, "233")
}

func TestDispatchSendsOverAllChannels(t *testing.T) {
	email := newFakeSender(models.ChannelEmail)
	sms := newFakeSender(models.ChannelSMS)
	inapp := newFakeSender(models.ChannelInApp)
	sink := &recordingSink{}
	d := newTestDispatcher(sink, email, sms, inapp)

	summary := d.Dispatch(context.Background(), "escalation_notification", models.TemplateBoth, 1,
		[]Delivery{delivery(1, "Ama", "ama@example.com", "0244123456")})

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 3, summary.Sent)
	assert.Len(t, email.sent, 1)
	assert.Len(t, sms.sent, 1)
	assert.Len(t, inapp.sent, 1)
	assert.Len(t, sink.dispatches, 3)
}

func TestDispatchNormalizesPhoneForSMS(t *testing.T) {
	sms := newFakeSender(models.ChannelSMS)
	d := newTestDispatcher(&recordingSink{}, sms)

	d.Dispatch(context.Background(), "t", models.TemplateSMS, 0,
		[]Delivery{delivery(1, "Ama", "", "0244123456")})

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "233244123456", sms.sent[0].Address)
}

func TestDispatchSkipsMissingContactDetails(t *testing.T) {
	email := newFakeSender(models.ChannelEmail)
	sms := newFakeSender(models.ChannelSMS)
	sink := &recordingSink{}
	d := newTestDispatcher(sink, email, sms)

	summary := d.Dispatch(context.Background(), "t", models.TemplateBoth, 0,
		[]Delivery{delivery(1, "Ama", "", "")})

	// in_app has no sender configured here, so all three channels skip.
	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 0, summary.Sent)
	assert.Empty(t, email.sent)
	assert.Empty(t, sms.sent)

	// Skips are still recorded with a reason.
	assert.Len(t, sink.dispatches, 3)
	for _, rec := range sink.dispatches {
		assert.Equal(t, models.DispatchSkipped, rec.Outcome)
		assert.True(t, rec.Detail.Valid)
	}
}

func TestDispatchInvalidPhoneFails(t *testing.T) {
	sms := newFakeSender(models.ChannelSMS)
	d := newTestDispatcher(&recordingSink{}, sms)

	summary := d.Dispatch(context.Background(), "t", models.TemplateSMS, 0,
		[]Delivery{delivery(1, "Ama", "", "12345")})

	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, sms.sent)
}

func TestDispatchOneFailureDoesNotBlockOthers(t *testing.T) {
	email := newFakeSender(models.ChannelEmail)
	email.failFor["down@example.com"] = errors.New("mailbox unavailable")
	d := newTestDispatcher(&recordingSink{}, email)

	summary := d.Dispatch(context.Background(), "t", models.TemplateEmail, 0, []Delivery{
		delivery(1, "Ama", "ama@example.com", ""),
		delivery(2, "Kofi", "down@example.com", ""),
		delivery(3, "Esi", "esi@example.com", ""),
	})

	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, email.sent, 2)
}

func TestDispatchRecordsCarryLogIDAndVariables(t *testing.T) {
	email := newFakeSender(models.ChannelEmail)
	sink := &recordingSink{}
	d := newTestDispatcher(sink, email)

	d.Dispatch(context.Background(), "escalation_notification", models.TemplateEmail, 77,
		[]Delivery{delivery(1, "Ama", "ama@example.com", "")})

	require.Len(t, sink.dispatches, 2) // email + in_app skip
	for _, rec := range sink.dispatches {
		assert.Equal(t, int64(77), rec.LogID.Int64)
		assert.Equal(t, "escalation_notification", rec.TemplateName)
		assert.True(t, rec.Variables.Valid)
	}
}

func TestDispatchAuditFailureDoesNotStopDelivery(t *testing.T) {
	email := newFakeSender(models.ChannelEmail)
	sink := &recordingSink{err: errors.New("audit table locked")}
	d := newTestDispatcher(sink, email)

	summary := d.Dispatch(context.Background(), "t", models.TemplateEmail, 0,
		[]Delivery{delivery(1, "Ama", "ama@example.com", "")})

	assert.Equal(t, 1, summary.Sent)
	assert.Len(t, email.sent, 1)
}

func TestDispatchEmailOnlyTemplateSkipsSMS(t *testing.T) {
	email := newFakeSender(models.ChannelEmail)
	sms := newFakeSender(models.ChannelSMS)
	inapp := newFakeSender(models.ChannelInApp)
	d := newTestDispatcher(&recordingSink{}, email, sms, inapp)

	d.Dispatch(context.Background(), "t", models.TemplateEmail, 0,
		[]Delivery{delivery(1, "Ama", "ama@example.com", "0244123456")})

	assert.Len(t, email.sent, 1)
	assert.Empty(t, sms.sent)
	assert.Len(t, inapp.sent, 1)
}
