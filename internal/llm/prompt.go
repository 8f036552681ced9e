package llm

import (
	"fmt"
	"strings"

	"github.com/ozzie78066/bulkbot/internal/plan"
)

// BuildPrompt assembles the deterministic generation prompt for one period
// of a plan. The four-week plan is generated in two periods (weeks 1-2 and
// 3-4); every other variant has a single period. Identical inputs always
// produce an identical prompt.
func BuildPrompt(description, allergies string, v plan.Variant, period int) string {
	if allergies == "" {
		allergies = "None"
	}

	var b strings.Builder
	b.WriteString("You are a professional fitness and nutrition expert creating personalised PDF workout and meal plans for paying clients.\n\n")
	fmt.Fprintf(&b, "A customer purchased the **%s** plan. Profile:\n\n", v.DisplayName())
	b.WriteString(description)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Allergies / intolerances: **%s** (avoid silently)\n\n", allergies)
	fmt.Fprintf(&b, "Generate %s with the following structure\n", periodSpan(v, period))
	b.WriteString(contentRequirements(v))
	b.WriteString("\n\nFORMAT (plain text, no bullets / tables):\n\n")
	b.WriteString("Day [X]:\n")
	if v != plan.MealsOnly {
		b.WriteString("Workout:\n- Exercise – sets x reps • intensity or load • form tip\n")
	}
	if v != plan.WorkoutOnly {
		b.WriteString("Meal:\n- Breakfast: Name + ingredients + Calories / P/C/F\n")
	}
	b.WriteString("…etc…\n\nRULES:\n- Every day unique\n")
	if v != plan.WorkoutOnly {
		b.WriteString("- Show kcal, protein, carbs, fat for each meal\n")
	}
	b.WriteString("- Friendly expert tone\n")
	return b.String()
}

// periodSpan names the covered time span for a generation period.
func periodSpan(v plan.Variant, period int) string {
	if v == plan.FourWeek {
		if period == 1 {
			return "Weeks 1 and 2"
		}
		return "Weeks 3 and 4"
	}
	if v == plan.Trial {
		return "3 trial days"
	}
	return "1 Week"
}

// contentRequirements lists what each variant's output must contain.
func contentRequirements(v plan.Variant) string {
	switch v {
	case plan.FourWeek:
		return "- 2-week workout plan (7 days/week, Week > Day > Exercises)\n- 2-week meal plan (7 days/week, 4 meals/day + macros)"
	case plan.WorkoutOnly:
		return "- 7-day workout plan (Mon-Sun, Day > Exercises, with progression notes)"
	case plan.MealsOnly:
		return "- 7-day meal plan (Breakfast, Lunch, Dinner, Snack + macros)"
	case plan.Trial:
		return "- 3-day sample workout plan\n- 3-day sample meal plan (Breakfast, Lunch, Dinner, Snack)"
	default: // OneWeek
		return "- 7-day workout plan (Mon-Sun)\n- 7-day meal plan (Breakfast, Lunch, Dinner, Snack)"
	}
}

// CleanOutput strips markdown emphasis the model tends to add despite the
// plain-text instruction.
func CleanOutput(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}
