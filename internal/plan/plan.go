// Package plan defines the closed set of purchasable plan variants and the
// classification of incoming order line items into exactly one variant.
package plan

import (
	"errors"
	"fmt"
	"strings"
)

// Variant identifies a purchasable plan configuration.
type Variant string

const (
	OneWeek     Variant = "1week"
	FourWeek    Variant = "4week"
	WorkoutOnly Variant = "workout"
	MealsOnly   Variant = "meals"
	Trial       Variant = "trial"
)

// ErrUnclassified is returned when no line item matches a known plan keyword.
var ErrUnclassified = errors.New("no line item matches a known plan")

// All lists every supported variant. The order matches classification priority.
func All() []Variant {
	return []Variant{Trial, FourWeek, WorkoutOnly, MealsOnly, OneWeek}
}

// DisplayName returns the customer-facing plan name used in emails and prompts.
func (v Variant) DisplayName() string {
	switch v {
	case OneWeek:
		return "1 Week"
	case FourWeek:
		return "4 Week"
	case WorkoutOnly:
		return "Workout Only"
	case MealsOnly:
		return "Meals Only"
	case Trial:
		return "Trial"
	}
	return string(v)
}

// Periods returns the number of sequential generation requests for a variant.
// Only the four-week plan is split into two periods (weeks 1-2 and 3-4).
func (v Variant) Periods() int {
	if v == FourWeek {
		return 2
	}
	return 1
}

// Valid reports whether v is one of the supported variants.
func (v Variant) Valid() bool {
	switch v {
	case OneWeek, FourWeek, WorkoutOnly, MealsOnly, Trial:
		return true
	}
	return false
}

// Parse converts a URL slug into a Variant.
func Parse(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown plan variant %q", s)
	}
	return v, nil
}

// classificationOrder maps keywords to variants in priority order. A title
// mentioning several keywords ("Trial of the 4 Week Plan") resolves to the
// first match, so the most specific keywords come first. Keep this order
// stable: it is part of the webhook contract.
var classificationOrder = []struct {
	keyword string
	variant Variant
}{
	{"trial", Trial},
	{"4 week", FourWeek},
	{"workout only", WorkoutOnly},
	{"meals only", MealsOnly},
	{"1 week", OneWeek},
}

// Classify resolves the purchased variant from order line-item titles.
// Every title is checked against each keyword in priority order; the first
// keyword found in any title wins. Returns ErrUnclassified when nothing
// matches rather than defaulting silently.
func Classify(titles []string) (Variant, error) {
	lowered := make([]string, len(titles))
	for i, t := range titles {
		lowered[i] = strings.ToLower(t)
	}
	for _, entry := range classificationOrder {
		for _, title := range lowered {
			if strings.Contains(title, entry.keyword) {
				return entry.variant, nil
			}
		}
	}
	return "", ErrUnclassified
}
