package intake

import (
	"fmt"

	"github.com/ozzie78066/bulkbot/internal/plan"
)

// FieldSchema maps a plan variant's form fields to their semantic roles.
// Each variant has its own form, so the hidden token field (and usually the
// profile fields) carry different question keys per form. The schema is
// explicit configuration, validated at startup, instead of guessing roles
// from free-text labels that upstream can reword at any time.
type FieldSchema struct {
	// TokenField is the hidden question key carrying the single-use token.
	TokenField string `mapstructure:"token_field"`
	// NameField, EmailField and AllergiesField are optional; when empty the
	// corresponding profile slot falls back to its default.
	NameField      string `mapstructure:"name_field"`
	EmailField     string `mapstructure:"email_field"`
	AllergiesField string `mapstructure:"allergies_field"`
}

// Validate rejects schemas that cannot authenticate a submission.
func (s FieldSchema) Validate(v plan.Variant) error {
	if s.TokenField == "" {
		return fmt.Errorf("plan %s: token_field is required", v)
	}
	return nil
}

// Token extracts the single-use token from a submission, or "" when the
// hidden field is absent.
func (s FieldSchema) Token(sub Submission) string {
	f, ok := sub.FieldByKey(s.TokenField)
	if !ok {
		return ""
	}
	parts := f.Value.Parts()
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
