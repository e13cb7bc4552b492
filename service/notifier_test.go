package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseguard/models"
	"caseguard/template"
)

func escalationTemplate() *models.NotificationTemplate {
	return &models.NotificationTemplate{
		Name:      "escalation_notification",
		Subject:   "Escalation: {{case_number}}",
		EmailBody: "Dear {{user_name}}, case {{case_number}} escalated: {{escalation_reason}} ({{date}})",
		SMSBody:   "{{case_number}}: {{escalation_reason}}",
		Type:      models.TemplateBoth,
		IsActive:  true,
	}
}

func TestNotifyEscalationRendersPerRecipient(t *testing.T) {
	directory := &fakeUserDirectory{
		users: map[int64]*models.User{},
		roles: map[string][]models.User{
			"supervisor": {
				*user(1, "Ama", "ama@example.com", ""),
				*user(2, "Kofi", "kofi@example.com", ""),
			},
		},
	}
	email := newFakeSender(models.ChannelEmail)
	dispatcher := newTestDispatcher(&recordingSink{}, email)
	notifier := NewNotifier(
		&fakeTemplateSource{tpl: escalationTemplate()},
		template.NewEngine(),
		NewTargetResolver(directory),
		dispatcher,
	)

	snapshot := models.CaseSnapshot{
		Ref:    models.EntityRef{Kind: models.KindCrimeReport, ID: 9},
		Number: "CR-2024-009",
	}
	rule := models.EscalationRule{
		RuleID:        1,
		PriorityLevel: 4,
		Targets:       []models.EscalationTarget{{Kind: models.TargetRole, Role: "supervisor"}},
	}
	entry := &models.EscalationLog{
		LogID:            11,
		EscalationReason: "No updates for 7 days",
		EscalatedAt:      time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}

	err := notifier.NotifyEscalation(snapshot, rule, entry)
	require.NoError(t, err)

	require.Len(t, email.sent, 2)
	assert.Equal(t, "Escalation: CR-2024-009", email.sent[0].Subject)
	bodies := []string{email.sent[0].Body, email.sent[1].Body}
	assert.Contains(t, bodies[0]+bodies[1], "Ama")
	assert.Contains(t, bodies[0]+bodies[1], "Kofi")
	assert.Contains(t, bodies[0], "No updates for 7 days")
	assert.Contains(t, bodies[0], "2024-06-15 12:00:00")
}

func TestNotifyEscalationNoRecipientsIsNotAnError(t *testing.T) {
	directory := &fakeUserDirectory{users: map[int64]*models.User{}, roles: map[string][]models.User{}}
	email := newFakeSender(models.ChannelEmail)
	notifier := NewNotifier(
		&fakeTemplateSource{tpl: escalationTemplate()},
		template.NewEngine(),
		NewTargetResolver(directory),
		newTestDispatcher(&recordingSink{}, email),
	)

	err := notifier.NotifyEscalation(
		models.CaseSnapshot{Ref: models.EntityRef{Kind: models.KindCrimeReport, ID: 1}},
		models.EscalationRule{Targets: []models.EscalationTarget{{Kind: models.TargetUserID, UserID: 99}}},
		&models.EscalationLog{},
	)
	require.NoError(t, err)
	assert.Empty(t, email.sent)
}

func TestNotifyEscalationMissingTemplate(t *testing.T) {
	notifier := NewNotifier(
		&fakeTemplateSource{err: &models.NotFoundError{Resource: "template", Key: "escalation_notification"}},
		template.NewEngine(),
		NewTargetResolver(&fakeUserDirectory{}),
		newTestDispatcher(&recordingSink{}),
	)

	err := notifier.NotifyEscalation(
		models.CaseSnapshot{},
		models.EscalationRule{},
		&models.EscalationLog{},
	)
	assert.Error(t, err)
}

func TestRenderPreviewFillsSamplesAndReportsGaps(t *testing.T) {
	tpl := &models.NotificationTemplate{
		Name:      "status_update",
		Subject:   "{{case_number}}",
		EmailBody: "Hello {{user_name}}, {{custom_field}}",
		Type:      models.TemplateEmail,
	}
	notifier := NewNotifier(
		&fakeTemplateSource{tpl: tpl},
		template.NewEngine(),
		NewTargetResolver(&fakeUserDirectory{}),
		newTestDispatcher(&recordingSink{}),
	)

	rendered, check, err := notifier.RenderPreview("status_update", nil)
	require.NoError(t, err)

	// Samples cover the known names; the custom one stays verbatim.
	assert.Equal(t, "APP-2024-001", rendered.Subject)
	assert.Contains(t, rendered.EmailBody, "John Doe")
	assert.Contains(t, rendered.EmailBody, "{{custom_field}}")
	assert.False(t, check.Valid)
	assert.Equal(t, []string{"custom_field"}, check.Missing)
}

func TestRenderPreviewCallerVariablesWin(t *testing.T) {
	tpl := &models.NotificationTemplate{
		Name:    "status_update",
		Subject: "{{case_number}}",
		Type:    models.TemplateEmail,
	}
	notifier := NewNotifier(
		&fakeTemplateSource{tpl: tpl},
		template.NewEngine(),
		NewTargetResolver(&fakeUserDirectory{}),
		newTestDispatcher(&recordingSink{}),
	)

	rendered, check, err := notifier.RenderPreview("status_update", map[string]string{"case_number": "CR-2024-777"})
	require.NoError(t, err)

	assert.Equal(t, "CR-2024-777", rendered.Subject)
	assert.True(t, check.Valid)
}
