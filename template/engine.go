// Package template renders notification templates by literal {{name}}
// placeholder substitution. There are no expressions, no conditionals and
// no escaping: templates are trusted administrator content, and a
// placeholder without a matching variable is left verbatim so a half-filled
// message is visible instead of silently blank.
package template

import (
	"regexp"
	"sort"
	"strings"

	"caseguard/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Rendered is the output of one render pass over a template.
type Rendered struct {
	Subject   string `json:"subject"`
	EmailBody string `json:"email_body"`
	SMSBody   string `json:"sms_body"`
}

// Engine substitutes variables into notification templates.
type Engine struct{}

// NewEngine creates a template engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Render replaces every {{key}} occurrence for which vars holds a value.
// Unknown placeholders stay in the output untouched.
func (e *Engine) Render(tpl *models.NotificationTemplate, vars map[string]string) Rendered {
	return Rendered{
		Subject:   e.replacePlaceholders(tpl.Subject, vars),
		EmailBody: e.replacePlaceholders(tpl.EmailBody, vars),
		SMSBody:   e.replacePlaceholders(tpl.SMSBody, vars),
	}
}

func (e *Engine) replacePlaceholders(text string, vars map[string]string) string {
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}
	return text
}

// RequiredVariables scans subject and both bodies for {{...}} tokens and
// returns the deduplicated, sorted name set. Diagnostic only; never a send
// precondition.
func (e *Engine) RequiredVariables(tpl *models.NotificationTemplate) []string {
	seen := make(map[string]bool)
	for _, text := range []string{tpl.Subject, tpl.EmailBody, tpl.SMSBody} {
		for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
			seen[match[1]] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariableCheck reports which declared placeholders a variable map covers.
type VariableCheck struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
}

// ValidateVariables compares the template's placeholder set against the
// provided variables. Used for previews; dispatch never enforces it.
func (e *Engine) ValidateVariables(tpl *models.NotificationTemplate, vars map[string]string) VariableCheck {
	var missing []string
	for _, name := range e.RequiredVariables(tpl) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return VariableCheck{Valid: len(missing) == 0, Missing: missing}
}

// SampleVariables returns placeholder fill-ins for previewing a template
// when the caller supplies none, limited to names the template uses.
func (e *Engine) SampleVariables(tpl *models.NotificationTemplate) map[string]string {
	samples := map[string]string{
		"user_name":          "John Doe",
		"application_number": "APP-2024-001",
		"report_number":      "CR-2024-001",
		"case_number":        "APP-2024-001",
		"case_type":          "gun_application",
		"reference_code":     "REF123456",
		"status":             "Approved",
		"escalation_reason":  "Processing delay",
		"priority_level":     "High",
		"date":               "2024-01-01 12:00:00",
	}

	vars := make(map[string]string)
	for _, name := range e.RequiredVariables(tpl) {
		if value, ok := samples[name]; ok {
			vars[name] = value
		}
	}
	return vars
}
