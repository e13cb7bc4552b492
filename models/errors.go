package models

import (
	"errors"
	"fmt"
)

// Error taxonomy. Handlers map these onto HTTP statuses; the evaluator and
// dispatcher swallow the per-item kinds (ConfigurationError,
// ValidationError, DeliveryError) and keep going, while InvalidStateError
// always surfaces to the calling operator.

// ConfigurationError marks a rule that cannot fire as authored: missing
// threshold or targets, or an unrecognized trigger kind.
type ConfigurationError struct {
	RuleID  int64
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.RuleID != 0 {
		return fmt.Sprintf("rule %d misconfigured: %s", e.RuleID, e.Message)
	}
	return "rule misconfigured: " + e.Message
}

// NotFoundError marks an absent template, user, rule, or log.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// InvalidStateError marks an illegal lifecycle transition, including the
// loser of a compare-and-set race between two operators.
type InvalidStateError struct {
	LogID   int64
	Message string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("escalation log %d: %s", e.LogID, e.Message)
}

// ValidationError marks malformed per-recipient input, e.g. a phone
// number no normalization rule fits.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// DeliveryError marks a failed channel send.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsInvalidState reports whether err is an InvalidStateError anywhere in
// its chain.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
