package taskio_test

import (
	"strings"
	"testing"

	"opsdeck/internal/engine/taskio"
)

func TestCleaningKeyword(t *testing.T) {
	inputs, outputs := taskio.Generate("Weekly Deep Cleaning")
	if len(inputs) == 0 || len(outputs) == 0 {
		t.Fatalf("expected suggestions, got %d/%d", len(inputs), len(outputs))
	}
	found := false
	for _, in := range inputs {
		if in.Label == "Cleaning Supplies" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Cleaning Supplies input, got %v", inputs)
	}
}

func TestMatchingIsCaseInsensitive(t *testing.T) {
	lower, _ := taskio.Generate("equipment inspection")
	upper, _ := taskio.Generate("EQUIPMENT INSPECTION")
	if len(lower) != len(upper) {
		t.Fatalf("case should not matter: %d vs %d", len(lower), len(upper))
	}
}

func TestMultipleKeywordsUnion(t *testing.T) {
	inputs, outputs := taskio.Generate("Inspect and Repair Conveyor")
	labels := map[string]bool{}
	for _, io := range append(inputs, outputs...) {
		labels[io.Label] = true
	}
	if !labels["Inspection Checklist"] || !labels["Maintenance Record"] {
		t.Fatalf("expected union of inspection and maintenance templates, got %v", labels)
	}
}

func TestFallbackIsGeneric(t *testing.T) {
	inputs, outputs := taskio.Generate("Quarterly strategy offsite")
	if len(inputs) != 1 || len(outputs) != 1 {
		t.Fatalf("fallback should give exactly one input and one output, got %d/%d", len(inputs), len(outputs))
	}
	if !strings.Contains(inputs[0].Description, "Quarterly strategy offsite") {
		t.Fatalf("fallback should reference the task name: %q", inputs[0].Description)
	}
}

func TestSuggestionsGetFreshIDs(t *testing.T) {
	a, _ := taskio.Generate("Cleaning")
	b, _ := taskio.Generate("Cleaning")
	if a[0].ID == "" || a[0].ID == b[0].ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a[0].ID, b[0].ID)
	}
}
