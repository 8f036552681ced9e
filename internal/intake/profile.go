package intake

import (
	"strings"
)

// Profile is the transient per-submission customer profile. It exists only
// for the duration of one form-intake invocation and is never persisted.
type Profile struct {
	Name      string
	Email     string
	Allergies string
	// Description is the full "label: value" rendering of all answers, in
	// submission order, used to build the generation prompt.
	Description string
}

const (
	defaultName      = "Client"
	defaultAllergies = "None"
)

// ExtractProfile normalizes a submission into a Profile. Categorical answers
// are mapped through the labeler, the email falls back to the address the
// token was issued for, and allergies default to "None" when absent.
func ExtractProfile(sub Submission, schema FieldSchema, labeler Labeler, tokenEmail string) Profile {
	p := Profile{
		Name:      defaultName,
		Email:     tokenEmail,
		Allergies: defaultAllergies,
	}

	var lines []string
	for _, f := range sub.Fields {
		// Hidden plumbing fields stay out of the prompt.
		if f.Key == schema.TokenField {
			continue
		}
		value := labeledValue(f, labeler)
		lines = append(lines, f.Label+": "+value)

		switch f.Key {
		case schema.NameField:
			if !f.Value.IsEmpty() {
				p.Name = value
			}
		case schema.EmailField:
			if !f.Value.IsEmpty() {
				p.Email = strings.TrimSpace(value)
			}
		case schema.AllergiesField:
			if !f.Value.IsEmpty() {
				p.Allergies = value
			}
		}
	}
	p.Description = strings.Join(lines, "\n")
	return p
}

// labeledValue renders a field's answer, translating each part through the
// labeler when the question has a known option table. Multi-valued answers
// are joined with ", ".
func labeledValue(f Field, labeler Labeler) string {
	parts := f.Value.Parts()
	out := make([]string, len(parts))
	for i, part := range parts {
		if labeler != nil {
			if label, ok := labeler.Label(f.Key, part); ok {
				out[i] = label
				continue
			}
		}
		out[i] = part
	}
	return strings.Join(out, ", ")
}
