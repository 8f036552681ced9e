package pdf

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer()
	doc := Document{
		Name:      "Alex",
		Email:     "alex@x.com",
		Allergies: "None",
		Body:      "Day 1:\nWorkout:\n- Squats – 3x5\nMeal:\n- Breakfast: Oats",
	}

	out, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", out[:min(8, len(out))])
	}
	if len(out) < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", len(out))
	}
}

func TestRenderLongBodySpansPages(t *testing.T) {
	r := NewRenderer()
	doc := Document{
		Name:  "Alex",
		Email: "alex@x.com",
		Body:  strings.Repeat("Day 1: squats, bench, rows. Meal: oats, chicken, rice.\n", 400),
	}

	out, err := r.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// A cover page plus a long body must paginate: count page objects.
	pages := bytes.Count(out, []byte("/Type /Page"))
	if pages < 3 {
		t.Errorf("expected at least 3 pages for a long body, found %d markers", pages)
	}
}

func TestRenderDefaultTitle(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(Document{Name: "A", Email: "a@x.com", Body: "b"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty output")
	}
}
