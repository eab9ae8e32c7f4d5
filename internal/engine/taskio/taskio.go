// Package taskio suggests default inputs and outputs for a work task based
// on keywords in its name. It is a best-effort classifier consulted at task
// creation time, not an invariant-maintaining component.
package taskio

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"opsdeck/internal/domain"
)

type template struct {
	Label       string
	Type        string
	Description string
}

type rule struct {
	Keywords []string
	Inputs   []template
	Outputs  []template
}

// Rules are ordered; every matching rule contributes its templates, so a
// name like "Equipment Inspection and Repair" unions two rule sets.
var rules = []rule{
	{
		Keywords: []string{"clean", "hygiene", "sanit"},
		Inputs: []template{
			{Label: "Cleaning Supplies", Type: "material", Description: "Consumables and chemicals for the cleaning task"},
			{Label: "Cleaning Checklist", Type: "document", Description: "Checklist of areas and acceptance criteria"},
		},
		Outputs: []template{
			{Label: "Cleaning Log", Type: "document", Description: "Signed record of completed cleaning"},
		},
	},
	{
		Keywords: []string{"inspect", "audit", "check"},
		Inputs: []template{
			{Label: "Inspection Checklist", Type: "document", Description: "Criteria the inspection verifies"},
		},
		Outputs: []template{
			{Label: "Inspection Report", Type: "document", Description: "Findings and nonconformities"},
			{Label: "Inspection Data", Type: "data", Description: "Recorded measurements and observations"},
		},
	},
	{
		Keywords: []string{"maint", "repair", "calibrat"},
		Inputs: []template{
			{Label: "Spare Parts", Type: "material", Description: "Replacement parts and consumables"},
			{Label: "Work Order", Type: "approval", Description: "Authorized maintenance work order"},
		},
		Outputs: []template{
			{Label: "Maintenance Record", Type: "document", Description: "Work performed and parts used"},
		},
	},
	{
		Keywords: []string{"train", "onboard", "induction"},
		Inputs: []template{
			{Label: "Training Material", Type: "document", Description: "Curriculum and handouts"},
		},
		Outputs: []template{
			{Label: "Attendance Record", Type: "document", Description: "Who attended and completion status"},
			{Label: "Competency Assessment", Type: "data", Description: "Assessment scores per attendee"},
		},
	},
	{
		Keywords: []string{"procure", "purchas", "order", "supplier"},
		Inputs: []template{
			{Label: "Purchase Requisition", Type: "approval", Description: "Approved requisition for the purchase"},
			{Label: "Supplier Quotes", Type: "document", Description: "Quotations from candidate suppliers"},
		},
		Outputs: []template{
			{Label: "Purchase Order", Type: "document", Description: "Issued purchase order"},
		},
	},
	{
		Keywords: []string{"report", "review", "analys"},
		Inputs: []template{
			{Label: "Source Data", Type: "data", Description: "Raw figures the report is built from"},
		},
		Outputs: []template{
			{Label: "Report Document", Type: "document", Description: "Compiled report for distribution"},
		},
	},
	{
		Keywords: []string{"safety", "incident", "hazard"},
		Inputs: []template{
			{Label: "Safety Procedure", Type: "document", Description: "Governing safety procedure"},
		},
		Outputs: []template{
			{Label: "Incident Report", Type: "document", Description: "Recorded incident or near-miss details"},
			{Label: "Corrective Actions", Type: "approval", Description: "Approved follow-up actions"},
		},
	},
}

// Generate proposes inputs and outputs for the given task name. Every rule
// with a case-insensitive keyword hit contributes; with no hit at all it
// falls back to one generic input and one generic output.
func Generate(name string) (inputs, outputs []domain.TaskIO) {
	lowered := strings.ToLower(name)
	for _, r := range rules {
		if !matches(lowered, r.Keywords) {
			continue
		}
		for _, t := range r.Inputs {
			inputs = append(inputs, instantiate(t))
		}
		for _, t := range r.Outputs {
			outputs = append(outputs, instantiate(t))
		}
	}
	if len(inputs) == 0 && len(outputs) == 0 {
		inputs = append(inputs, domain.TaskIO{
			ID:          uuid.New().String(),
			Label:       "Prerequisites",
			Type:        "other",
			Description: fmt.Sprintf("Everything required before starting %q", name),
		})
		outputs = append(outputs, domain.TaskIO{
			ID:          uuid.New().String(),
			Label:       "Result/Output",
			Type:        "data",
			Description: fmt.Sprintf("The outcome produced by %q", name),
		})
	}
	return inputs, outputs
}

func matches(loweredName string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(loweredName, kw) {
			return true
		}
	}
	return false
}

func instantiate(t template) domain.TaskIO {
	return domain.TaskIO{
		ID:          uuid.New().String(),
		Label:       t.Label,
		Type:        t.Type,
		Description: t.Description,
	}
}
