package service

import (
	"log"
	"time"

	"caseguard/models"
)

// EscalationNotifier is implemented by whatever fans out escalation
// notifications. The evaluator treats notification failure as non-fatal:
// the log is already on the books and in-app delivery has its own record.
type EscalationNotifier interface {
	NotifyEscalation(snapshot models.CaseSnapshot, rule models.EscalationRule, entry *models.EscalationLog) error
}

// RuleEvaluator sweeps open cases against the active escalation rules
// and opens escalations through the ledger for the first matching rule.
type RuleEvaluator struct {
	rules  RuleStore
	cases  CaseStore
	logs   LogStore
	ledger *EscalationLedger

	notifier EscalationNotifier

	// now is swappable for tests
	now func() time.Time
}

// NewRuleEvaluator creates a new rule evaluator
func NewRuleEvaluator(rules RuleStore, cases CaseStore, logs LogStore, ledger *EscalationLedger, notifier EscalationNotifier) *RuleEvaluator {
	return &RuleEvaluator{
		rules:    rules,
		cases:    cases,
		logs:     logs,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

// Evaluate runs one full sweep. Rules come back ordered by priority so
// the first match per entity is the highest-priority one. Entities with
// an open escalation are skipped before any rule is checked; per-entity
// failures are logged and do not abort the sweep.
func (e *RuleEvaluator) Evaluate() (*models.SweepResult, error) {
	result := &models.SweepResult{ProcessedAt: e.now()}

	rules, err := e.rules.GetActiveRules()
	if err != nil {
		return nil, err
	}
	active := rules[:0]
	for _, rule := range rules {
		if !rule.TriggerCondition.Known() {
			log.Printf("[EVALUATOR] rule %d has unknown trigger condition %q, ignoring", rule.RuleID, rule.TriggerCondition)
			continue
		}
		active = append(active, rule)
	}
	if len(active) == 0 {
		log.Println("[EVALUATOR] no active escalation rules, nothing to do")
		return result, nil
	}

	cases, err := e.cases.ListOpenCases()
	if err != nil {
		return nil, err
	}

	for _, snapshot := range cases {
		result.Examined++

		open, err := e.logs.HasOpenLog(snapshot.Ref)
		if err != nil {
			log.Printf("[EVALUATOR] open-log check failed for %s: %v", snapshot.Ref, err)
			result.Skipped++
			continue
		}
		if open {
			result.Skipped++
			continue
		}

		matched := false
		for _, rule := range active {
			hit, err := e.ShouldEscalate(snapshot, rule)
			if err != nil {
				log.Printf("[EVALUATOR] rule %d failed for %s: %v", rule.RuleID, snapshot.Ref, err)
				continue
			}
			if !hit {
				continue
			}

			entry, created, err := e.ledger.Open(snapshot, rule, nil)
			if err != nil {
				log.Printf("[EVALUATOR] could not open escalation for %s: %v", snapshot.Ref, err)
				break
			}
			if created {
				result.Escalated++
				if e.notifier != nil {
					if err := e.notifier.NotifyEscalation(snapshot, rule, entry); err != nil {
						log.Printf("[EVALUATOR] notification failed for %s: %v", snapshot.Ref, err)
					}
				}
			}
			matched = true
			break
		}
		if !matched {
			result.Skipped++
		}
	}

	log.Printf("[EVALUATOR] sweep done: %d examined, %d escalated, %d skipped",
		result.Examined, result.Escalated, result.Skipped)
	return result, nil
}

// ShouldEscalate reports whether a single rule fires for a single case.
// Time-based triggers require a known submission time; cases that never
// reached submission cannot age.
func (e *RuleEvaluator) ShouldEscalate(snapshot models.CaseSnapshot, rule models.EscalationRule) (bool, error) {
	now := e.now()

	switch rule.TriggerCondition {
	case models.TriggerDaysSinceSubmission:
		if !snapshot.SubmittedAt.Valid {
			return false, nil
		}
		return daysBetween(snapshot.SubmittedAt.Time, now) >= rule.ThresholdValue, nil

	case models.TriggerHoursSinceSubmission:
		if !snapshot.SubmittedAt.Valid {
			return false, nil
		}
		return int(now.Sub(snapshot.SubmittedAt.Time).Hours()) >= rule.ThresholdValue, nil

	case models.TriggerDaysSinceLastUpdate:
		return daysBetween(snapshot.UpdatedAt, now) >= rule.ThresholdValue, nil

	case models.TriggerStatusUnchanged:
		changedAt, err := e.cases.LastStatusChangeAt(snapshot.Ref)
		if err != nil {
			return false, err
		}
		if changedAt == nil {
			// Status never changed: age from submission instead.
			if !snapshot.SubmittedAt.Valid {
				return false, nil
			}
			changedAt = &snapshot.SubmittedAt.Time
		}
		return daysBetween(*changedAt, now) >= rule.ThresholdValue, nil

	case models.TriggerDocumentsPending:
		pending, err := e.cases.CountPendingDocuments(snapshot.Ref)
		if err != nil {
			return false, err
		}
		return pending >= rule.ThresholdValue, nil

	case models.TriggerCrimeSeverityLevel:
		if snapshot.Ref.Kind != models.KindCrimeReport {
			return false, nil
		}
		return snapshot.SeverityLevel >= rule.ThresholdValue, nil

	case models.TriggerHighPriority:
		if snapshot.Ref.Kind != models.KindGunApplication {
			return false, nil
		}
		return snapshot.PriorityLevel >= rule.ThresholdValue, nil
	}

	return false, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
