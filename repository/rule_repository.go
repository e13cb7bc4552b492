package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"caseguard/models"
)

// RuleRepository handles database operations for escalation rules.
// Rules are authored elsewhere; this repository only reads them.
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// GetActiveRules retrieves active escalation rules ordered by priority
// descending, ties broken by ascending rule id. Target lists are parsed
// eagerly here; a rule whose targets are malformed or empty is skipped
// with a configuration log so one bad rule never halts a sweep.
func (r *RuleRepository) GetActiveRules() ([]models.EscalationRule, error) {
	query := `
		SELECT
			rule_id, name, description, trigger_condition,
			threshold_value, escalation_targets, priority_level,
			is_active, created_at, updated_at
		FROM escalation_rules
		WHERE is_active = true
		ORDER BY priority_level DESC, rule_id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query escalation rules: %w", err)
	}
	defer rows.Close()

	var rules []models.EscalationRule
	for rows.Next() {
		var rule models.EscalationRule
		var rawTargets []byte
		err := rows.Scan(
			&rule.RuleID,
			&rule.Name,
			&rule.Description,
			&rule.TriggerCondition,
			&rule.ThresholdValue,
			&rawTargets,
			&rule.PriorityLevel,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation rule: %w", err)
		}

		rule.Targets, err = ParseEscalationTargets(rawTargets)
		if err != nil {
			log.Printf("[RULES] skipping rule %d (%s): %v", rule.RuleID, rule.Name, err)
			continue
		}
		if len(rule.Targets) == 0 {
			log.Printf("[RULES] skipping rule %d (%s): active rule with empty target list", rule.RuleID, rule.Name)
			continue
		}
		if rule.ThresholdValue < 0 {
			log.Printf("[RULES] skipping rule %d (%s): negative threshold", rule.RuleID, rule.Name)
			continue
		}

		rules = append(rules, rule)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escalation rules: %w", err)
	}

	return rules, nil
}

// GetRuleByID retrieves a single rule, active or not. Logs keep
// referencing deactivated rules, so lookups must still find them.
func (r *RuleRepository) GetRuleByID(ruleID int64) (*models.EscalationRule, error) {
	query := `
		SELECT
			rule_id, name, description, trigger_condition,
			threshold_value, escalation_targets, priority_level,
			is_active, created_at, updated_at
		FROM escalation_rules
		WHERE rule_id = ?
	`

	var rule models.EscalationRule
	var rawTargets []byte
	err := r.db.QueryRow(query, ruleID).Scan(
		&rule.RuleID,
		&rule.Name,
		&rule.Description,
		&rule.TriggerCondition,
		&rule.ThresholdValue,
		&rawTargets,
		&rule.PriorityLevel,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "escalation rule", Key: strconv.FormatInt(ruleID, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation rule: %w", err)
	}

	rule.Targets, err = ParseEscalationTargets(rawTargets)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// ParseEscalationTargets parses the escalation_targets JSON column into
// tagged target entries. Accepted element shapes:
//
//	7                      numeric user id
//	"42"                   numeric user id as string
//	"role:admin"           role reference
//	"admin"                bare role name
//	{"kind":"user_id","value":7} / {"kind":"role","value":"admin"}
//
// Any element that fits none of these makes the whole list malformed.
func ParseEscalationTargets(raw []byte) ([]models.EscalationTarget, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, &models.ConfigurationError{Message: fmt.Sprintf("escalation_targets is not a JSON array: %v", err)}
	}

	targets := make([]models.EscalationTarget, 0, len(elements))
	for i, element := range elements {
		target, err := parseTargetElement(element)
		if err != nil {
			return nil, &models.ConfigurationError{Message: fmt.Sprintf("target %d: %v", i, err)}
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func parseTargetElement(raw json.RawMessage) (models.EscalationTarget, error) {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		if id <= 0 {
			return models.EscalationTarget{}, fmt.Errorf("user id must be positive, got %d", id)
		}
		return models.EscalationTarget{Kind: models.TargetUserID, UserID: id}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return models.EscalationTarget{}, fmt.Errorf("empty target entry")
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			if n <= 0 {
				return models.EscalationTarget{}, fmt.Errorf("user id must be positive, got %d", n)
			}
			return models.EscalationTarget{Kind: models.TargetUserID, UserID: n}, nil
		}
		role := strings.TrimPrefix(s, "role:")
		if role == "" {
			return models.EscalationTarget{}, fmt.Errorf("empty role name")
		}
		return models.EscalationTarget{Kind: models.TargetRole, Role: role}, nil
	}

	var obj struct {
		Kind  string          `json:"kind"`
		Type  string          `json:"type"` // legacy field name
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.EscalationTarget{}, fmt.Errorf("unrecognized target shape %s", string(raw))
	}
	kind := obj.Kind
	if kind == "" {
		kind = obj.Type
	}
	switch kind {
	case string(models.TargetUserID):
		var uid int64
		if err := json.Unmarshal(obj.Value, &uid); err != nil || uid <= 0 {
			return models.EscalationTarget{}, fmt.Errorf("invalid user id value %s", string(obj.Value))
		}
		return models.EscalationTarget{Kind: models.TargetUserID, UserID: uid}, nil
	case string(models.TargetRole):
		var role string
		if err := json.Unmarshal(obj.Value, &role); err != nil || role == "" {
			return models.EscalationTarget{}, fmt.Errorf("invalid role value %s", string(obj.Value))
		}
		return models.EscalationTarget{Kind: models.TargetRole, Role: role}, nil
	}
	return models.EscalationTarget{}, fmt.Errorf("unknown target kind %q", kind)
}
