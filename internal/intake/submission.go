// Package intake parses form-submission webhook payloads and derives the
// transient customer profile used to drive plan generation.
package intake

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Submission is the body of a form-submission webhook. Some providers wrap
// the payload in a "data" envelope; ParseSubmission accepts both shapes.
type Submission struct {
	SubmissionID string  `json:"submissionId"`
	Fields       []Field `json:"fields"`
}

// Field is one answered form question.
type Field struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Value   Value    `json:"value"`
	Options []Option `json:"options,omitempty"`
}

// Option is one selectable choice of a categorical question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Value holds a form answer that may arrive as a string, an array of
// strings, or another JSON scalar.
type Value struct {
	parts []string
}

// UnmarshalJSON accepts string, []string, and scalar values.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.parts = []string{s}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		v.parts = arr
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unsupported field value: %w", err)
	}
	if raw == nil {
		v.parts = nil
		return nil
	}
	v.parts = []string{fmt.Sprint(raw)}
	return nil
}

// MarshalJSON round-trips single values as strings and multi values as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.parts) == 1 {
		return json.Marshal(v.parts[0])
	}
	return json.Marshal(v.parts)
}

// Parts returns the raw answer parts.
func (v Value) Parts() []string { return v.parts }

// String joins multi-valued answers with ", ".
func (v Value) String() string { return strings.Join(v.parts, ", ") }

// IsEmpty reports whether the answer carries no text at all.
func (v Value) IsEmpty() bool {
	for _, p := range v.parts {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// ParseSubmission decodes a webhook body, unwrapping an optional "data"
// envelope.
func ParseSubmission(body []byte) (Submission, error) {
	var envelope struct {
		Data *Submission `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return *envelope.Data, nil
	}
	var sub Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	return sub, nil
}

// FieldByKey returns the first field with the given key.
func (s Submission) FieldByKey(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
