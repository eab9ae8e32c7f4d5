package engine

import (
	"context"

	"opsdeck/internal/domain"
)

// DanglingReferences scans the soft references that deletes leave behind:
// department heads naming a deleted role, tasks linking a deleted SOP and
// SOPs pointing at a deleted business process.
func (e Engine) DanglingReferences(ctx context.Context) ([]domain.DanglingReference, error) {
	out := []domain.DanglingReference{}

	departments, err := e.Repo.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range departments {
		if d.HeadOfDepartment == "" {
			continue
		}
		ok, err := e.Repo.RoleNameExists(ctx, d.HeadOfDepartment)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, domain.DanglingReference{
				EntityKind: "department",
				EntityID:   d.ID,
				Field:      "head_of_department",
				Missing:    d.HeadOfDepartment,
			})
		}
	}

	tasks, err := e.Repo.ListTasks(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		for _, sopID := range t.LinkedSopIDs {
			ok, err := e.Repo.SopExists(ctx, sopID)
			if err != nil {
				return nil, err
			}
			if !ok {
				out = append(out, domain.DanglingReference{
					EntityKind: "task",
					EntityID:   t.ID,
					Field:      "linked_sop_ids",
					Missing:    sopID,
				})
			}
		}
	}

	sops, err := e.Repo.ListSops(ctx, "", "")
	if err != nil {
		return nil, err
	}
	for _, s := range sops {
		if s.BusinessProcessID == nil {
			continue
		}
		ok, err := e.Repo.ProcessExists(ctx, *s.BusinessProcessID)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, domain.DanglingReference{
				EntityKind: "sop",
				EntityID:   s.ID,
				Field:      "business_process_id",
				Missing:    *s.BusinessProcessID,
			})
		}
	}
	return out, nil
}
