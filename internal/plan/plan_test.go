package plan

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		titles []string
		want   Variant
		err    bool
	}{
		{"four week", []string{"4 Week Plan"}, FourWeek, false},
		{"one week", []string{"1 Week Plan"}, OneWeek, false},
		{"case insensitive", []string{"4 WEEK PLAN"}, FourWeek, false},
		{"trial beats four week", []string{"Trial of the 4 Week Plan"}, Trial, false},
		{"four week beats one week", []string{"Upgrade: 1 week to 4 week"}, FourWeek, false},
		{"workout only", []string{"Workout Only Plan"}, WorkoutOnly, false},
		{"meals only", []string{"Meals Only Plan"}, MealsOnly, false},
		{"match in second item", []string{"Gift wrap", "1 Week Plan"}, OneWeek, false},
		{"priority across items", []string{"1 Week Plan", "Trial Pack"}, Trial, false},
		{"no match", []string{"Sticker pack"}, "", true},
		{"empty", nil, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.titles)
			if tc.err {
				if !errors.Is(err, ErrUnclassified) {
					t.Fatalf("expected ErrUnclassified, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Classify(%v) = %s, want %s", tc.titles, got, tc.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if v, err := Parse("4week"); err != nil || v != FourWeek {
		t.Fatalf("Parse(4week) = %v, %v", v, err)
	}
	if v, err := Parse(" Trial "); err != nil || v != Trial {
		t.Fatalf("Parse(trial) = %v, %v", v, err)
	}
	if _, err := Parse("2week"); err == nil {
		t.Fatal("expected error for unknown slug")
	}
}

func TestPeriods(t *testing.T) {
	if got := FourWeek.Periods(); got != 2 {
		t.Errorf("FourWeek.Periods() = %d, want 2", got)
	}
	for _, v := range []Variant{OneWeek, WorkoutOnly, MealsOnly, Trial} {
		if got := v.Periods(); got != 1 {
			t.Errorf("%s.Periods() = %d, want 1", v, got)
		}
	}
}
