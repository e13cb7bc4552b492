package service

import (
	"context"
	"fmt"
	"log"

	"caseguard/models"
	"caseguard/template"
)

const escalationTemplateName = "escalation_notification"

// Notifier turns an opened escalation into rendered, per-recipient
// notifications and hands them to the dispatcher.
type Notifier struct {
	templates  TemplateSource
	engine     *template.Engine
	resolver   *TargetResolver
	dispatcher *Dispatcher
}

// NewNotifier creates a new notifier
func NewNotifier(templates TemplateSource, engine *template.Engine, resolver *TargetResolver, dispatcher *Dispatcher) *Notifier {
	return &Notifier{
		templates:  templates,
		engine:     engine,
		resolver:   resolver,
		dispatcher: dispatcher,
	}
}

// NotifyEscalation resolves the rule's targets, renders the escalation
// template once per recipient, and dispatches the batch. No recipients
// resolving is not an error: the escalation log already stands on its own.
func (n *Notifier) NotifyEscalation(snapshot models.CaseSnapshot, rule models.EscalationRule, entry *models.EscalationLog) error {
	tpl, err := n.templates.Get(escalationTemplateName)
	if err != nil {
		return fmt.Errorf("loading escalation template: %w", err)
	}

	recipients, err := n.resolver.Resolve(rule.Targets)
	if err != nil {
		return fmt.Errorf("resolving escalation targets: %w", err)
	}
	if len(recipients) == 0 {
		log.Printf("[NOTIFY] rule %d resolved no recipients for %s", rule.RuleID, snapshot.Ref)
		return nil
	}

	deliveries := make([]Delivery, 0, len(recipients))
	for _, recipient := range recipients {
		vars := map[string]string{
			"user_name":         recipient.Name,
			"case_number":       snapshot.Number,
			"case_type":         string(snapshot.Ref.Kind),
			"escalation_reason": entry.EscalationReason,
			"priority_level":    fmt.Sprintf("%d", rule.PriorityLevel),
			"date":              entry.EscalatedAt.Format("2006-01-02 15:04:05"),
		}
		deliveries = append(deliveries, Delivery{
			Recipient: recipient,
			Rendered:  n.engine.Render(tpl, vars),
			Variables: vars,
		})
	}

	n.dispatcher.Dispatch(context.Background(), tpl.Name, tpl.Type, entry.LogID, deliveries)
	return nil
}

// RenderPreview renders a template with caller-supplied variables,
// falling back to sample values for anything not provided. The check
// reports which placeholders remained unfilled.
func (n *Notifier) RenderPreview(name string, vars map[string]string) (*template.Rendered, *template.VariableCheck, error) {
	tpl, err := n.templates.Get(name)
	if err != nil {
		return nil, nil, err
	}

	merged := n.engine.SampleVariables(tpl)
	for k, v := range vars {
		merged[k] = v
	}

	rendered := n.engine.Render(tpl, merged)
	check := n.engine.ValidateVariables(tpl, merged)
	return &rendered, &check, nil
}
