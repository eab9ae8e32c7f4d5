package engine

import (
	"context"
	"errors"
	"fmt"

	"opsdeck/internal/domain"
	"opsdeck/internal/events"
	"opsdeck/internal/repo"
)

// breadcrumbDepthLimit bounds upward traversal of the department tree.
// Cycles are a data-quality bug, not a supported state; the bound keeps a
// corrupted tree from hanging the walk.
const breadcrumbDepthLimit = 20

// DepartmentCreateOptions are parameters for creating a department.
type DepartmentCreateOptions struct {
	Name             string
	Description      string
	HeadOfDepartment string
	ParentID         string
	ActorID          string
}

func (e Engine) CreateDepartment(ctx context.Context, opts DepartmentCreateOptions) (domain.Department, error) {
	if opts.Name == "" {
		return domain.Department{}, errors.New("name is required")
	}
	if opts.ParentID != "" {
		if _, err := e.Repo.GetDepartment(ctx, opts.ParentID); err != nil {
			return domain.Department{}, fmt.Errorf("parent department %s: %w", opts.ParentID, err)
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Department{}, err
	}
	defer tx.Rollback()

	id, err := e.Repo.NextID(ctx, tx, "DEP")
	if err != nil {
		return domain.Department{}, err
	}
	d := domain.Department{
		ID:               id,
		Name:             opts.Name,
		Description:      opts.Description,
		HeadOfDepartment: opts.HeadOfDepartment,
		ParentID:         optionalString(opts.ParentID),
		CreatedAt:        e.nowRFC3339(),
	}
	if err := e.Repo.InsertDepartment(ctx, tx, d); err != nil {
		return domain.Department{}, err
	}
	if err := e.Events.Append(ctx, tx, "department.created", "department", d.ID, opts.ActorID, events.EventPayload{"name": d.Name}); err != nil {
		return domain.Department{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Department{}, err
	}
	return d, nil
}

// DepartmentUpdateOptions encapsulates allowed department updates. Nil
// pointers leave the field untouched.
type DepartmentUpdateOptions struct {
	ID               string
	Name             *string
	Description      *string
	HeadOfDepartment *string
	SetParent        *string
	ParentProvided   bool
	ActorID          string
}

func (e Engine) UpdateDepartment(ctx context.Context, opts DepartmentUpdateOptions) (domain.Department, error) {
	d, err := e.Repo.GetDepartment(ctx, opts.ID)
	if err != nil {
		return d, err
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return d, errors.New("name is required")
		}
		d.Name = *opts.Name
	}
	if opts.Description != nil {
		d.Description = *opts.Description
	}
	if opts.HeadOfDepartment != nil {
		d.HeadOfDepartment = *opts.HeadOfDepartment
	}
	if opts.ParentProvided {
		if opts.SetParent == nil || *opts.SetParent == "" {
			d.ParentID = nil
		} else {
			if err := e.ensureNoDepartmentCycle(ctx, *opts.SetParent, d.ID); err != nil {
				return d, err
			}
			d.ParentID = opts.SetParent
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateDepartment(ctx, tx, d); err != nil {
		return d, err
	}
	if err := e.Events.Append(ctx, tx, "department.updated", "department", d.ID, opts.ActorID, events.EventPayload{"name": d.Name}); err != nil {
		return d, err
	}
	if err := tx.Commit(); err != nil {
		return d, err
	}
	return d, nil
}

// ensureNoDepartmentCycle rejects a re-parent that would make a department
// its own ancestor. Walks parent pointers from the proposed parent to a
// root with a visited set, so it terminates even on already-corrupt data.
func (e Engine) ensureNoDepartmentCycle(ctx context.Context, parentID, childID string) error {
	if parentID == childID {
		return errors.New("department cannot be its own parent")
	}
	visited := map[string]bool{childID: true}
	cur := parentID
	for cur != "" {
		if visited[cur] {
			return errors.New("department hierarchy cycle detected")
		}
		visited[cur] = true
		d, err := e.Repo.GetDepartment(ctx, cur)
		if err != nil {
			return fmt.Errorf("parent department %s: %w", cur, err)
		}
		if d.ParentID == nil {
			return nil
		}
		cur = *d.ParentID
	}
	return nil
}

// DeleteDepartment promotes the target's children one level before the
// target goes away. Children are never orphaned or cascade-deleted.
func (e Engine) DeleteDepartment(ctx context.Context, id, actorID string) error {
	d, err := e.Repo.GetDepartment(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteDepartment(ctx, tx, d); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "department.deleted", "department", d.ID, actorID, events.EventPayload{"name": d.Name}); err != nil {
		return err
	}
	return tx.Commit()
}

// DepartmentBreadcrumbs walks parent pointers upward and returns the chain
// in root-to-self order. Traversal is capped rather than trusted to
// terminate.
func (e Engine) DepartmentBreadcrumbs(ctx context.Context, id string) ([]domain.Department, error) {
	var chain []domain.Department
	cur := id
	for depth := 0; depth < breadcrumbDepthLimit && cur != ""; depth++ {
		d, err := e.Repo.GetDepartment(ctx, cur)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) && depth > 0 {
				break
			}
			return nil, err
		}
		chain = append(chain, d)
		if d.ParentID == nil {
			break
		}
		cur = *d.ParentID
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// RoleCreateOptions are parameters for creating an organization role.
type RoleCreateOptions struct {
	Name        string
	Description string
	TierID      string
	RaciType    string
	ActorID     string
}

func (e Engine) CreateRole(ctx context.Context, opts RoleCreateOptions) (domain.OrgRole, error) {
	if opts.Name == "" {
		return domain.OrgRole{}, errors.New("name is required")
	}
	if _, err := e.Repo.GetTier(ctx, opts.TierID); err != nil {
		return domain.OrgRole{}, fmt.Errorf("tier %s: %w", opts.TierID, err)
	}
	if opts.RaciType == "" {
		opts.RaciType = "responsible"
	}
	if err := validateRaci(opts.RaciType); err != nil {
		return domain.OrgRole{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.OrgRole{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.NextID(ctx, tx, "ROL")
	if err != nil {
		return domain.OrgRole{}, err
	}
	role := domain.OrgRole{
		ID:          id,
		Name:        opts.Name,
		Description: opts.Description,
		TierID:      opts.TierID,
		RaciType:    opts.RaciType,
		CreatedAt:   e.nowRFC3339(),
	}
	if err := e.Repo.InsertRole(ctx, tx, role); err != nil {
		return domain.OrgRole{}, err
	}
	if err := e.Events.Append(ctx, tx, "role.created", "role", role.ID, opts.ActorID, events.EventPayload{"name": role.Name, "tier": role.TierID}); err != nil {
		return domain.OrgRole{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.OrgRole{}, err
	}
	return role, nil
}

// RoleUpdateOptions encapsulates allowed role updates. Renaming a role does
// not cascade to departments that reference the old name; that is the
// documented denormalization, surfaced by the dangling-reference audit.
type RoleUpdateOptions struct {
	ID          string
	Name        *string
	Description *string
	TierID      *string
	RaciType    *string
	ActorID     string
}

func (e Engine) UpdateRole(ctx context.Context, opts RoleUpdateOptions) (domain.OrgRole, error) {
	role, err := e.Repo.GetRole(ctx, opts.ID)
	if err != nil {
		return role, err
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return role, errors.New("name is required")
		}
		role.Name = *opts.Name
	}
	if opts.Description != nil {
		role.Description = *opts.Description
	}
	if opts.TierID != nil {
		if _, err := e.Repo.GetTier(ctx, *opts.TierID); err != nil {
			return role, fmt.Errorf("tier %s: %w", *opts.TierID, err)
		}
		role.TierID = *opts.TierID
	}
	if opts.RaciType != nil {
		if err := validateRaci(*opts.RaciType); err != nil {
			return role, err
		}
		role.RaciType = *opts.RaciType
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return role, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateRole(ctx, tx, role); err != nil {
		return role, err
	}
	if err := e.Events.Append(ctx, tx, "role.updated", "role", role.ID, opts.ActorID, events.EventPayload{"name": role.Name}); err != nil {
		return role, err
	}
	if err := tx.Commit(); err != nil {
		return role, err
	}
	return role, nil
}

func (e Engine) DeleteRole(ctx context.Context, id, actorID string) error {
	role, err := e.Repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteRole(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "role.deleted", "role", id, actorID, events.EventPayload{"name": role.Name}); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) RolesByTier(ctx context.Context, tierID string) ([]domain.OrgRole, error) {
	if tierID != "" {
		if _, err := e.Repo.GetTier(ctx, tierID); err != nil {
			return nil, fmt.Errorf("tier %s: %w", tierID, err)
		}
	}
	return e.Repo.ListRoles(ctx, tierID)
}

// RoleOptions returns label/value pairs for role pickers; value is the
// role name because departments reference heads by name, not id.
func (e Engine) RoleOptions(ctx context.Context) ([]domain.RoleOption, error) {
	roles, err := e.Repo.ListRoles(ctx, "")
	if err != nil {
		return nil, err
	}
	opts := make([]domain.RoleOption, 0, len(roles))
	for _, r := range roles {
		opts = append(opts, domain.RoleOption{Label: r.Name, Value: r.Name})
	}
	return opts, nil
}

// TierUpdateOptions updates a tier's labels. The tier set itself is fixed.
type TierUpdateOptions struct {
	ID          string
	Name        *string
	Description *string
	ActorID     string
}

func (e Engine) UpdateTier(ctx context.Context, opts TierUpdateOptions) (domain.RoleTier, error) {
	t, err := e.Repo.GetTier(ctx, opts.ID)
	if err != nil {
		return t, err
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return t, errors.New("name is required")
		}
		t.Name = *opts.Name
	}
	if opts.Description != nil {
		t.Description = *opts.Description
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTier(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.Events.Append(ctx, tx, "tier.updated", "tier", t.ID, opts.ActorID, events.EventPayload{"name": t.Name}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

func validateRaci(raci string) error {
	switch raci {
	case "responsible", "accountable", "consulted", "informed":
		return nil
	}
	return fmt.Errorf("invalid raci type %s", raci)
}

// --- helpers ---

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
