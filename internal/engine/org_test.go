package engine_test

import (
	"fmt"
	"testing"

	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
)

func createDept(t *testing.T, env testEnv, name, parentID string) domain.Department {
	t.Helper()
	d, err := env.Engine.CreateDepartment(env.Ctx, engine.DepartmentCreateOptions{
		Name:     name,
		ParentID: parentID,
		ActorID:  "tester",
	})
	if err != nil {
		t.Fatalf("create department %s: %v", name, err)
	}
	return d
}

func TestDepartmentDeletePromotesChildren(t *testing.T) {
	env := newTestEnv(t)
	root := createDept(t, env, "Operations", "")
	mid := createDept(t, env, "Manufacturing", root.ID)
	leaf := createDept(t, env, "Packaging", mid.ID)

	if err := env.Engine.DeleteDepartment(env.Ctx, mid.ID, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := env.Engine.Repo.GetDepartment(env.Ctx, leaf.ID)
	if err != nil {
		t.Fatalf("child survived? %v", err)
	}
	if got.ParentID == nil || *got.ParentID != root.ID {
		t.Fatalf("expected child promoted to %s, got %v", root.ID, got.ParentID)
	}
}

func TestDeleteRootPromotesChildrenToRoots(t *testing.T) {
	env := newTestEnv(t)
	root := createDept(t, env, "Operations", "")
	child := createDept(t, env, "Logistics", root.ID)

	if err := env.Engine.DeleteDepartment(env.Ctx, root.ID, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := env.Engine.Repo.GetDepartment(env.Ctx, child.ID)
	if got.ParentID != nil {
		t.Fatalf("expected child to become a root, got parent %v", *got.ParentID)
	}
}

func TestReparentCycleRejected(t *testing.T) {
	env := newTestEnv(t)
	a := createDept(t, env, "A", "")
	b := createDept(t, env, "B", a.ID)
	c := createDept(t, env, "C", b.ID)

	// a under c closes a loop
	_, err := env.Engine.UpdateDepartment(env.Ctx, engine.DepartmentUpdateOptions{
		ID:             a.ID,
		SetParent:      &c.ID,
		ParentProvided: true,
		ActorID:        "tester",
	})
	if err == nil {
		t.Fatalf("expected cycle rejection")
	}
	// self-parenting too
	_, err = env.Engine.UpdateDepartment(env.Ctx, engine.DepartmentUpdateOptions{
		ID:             a.ID,
		SetParent:      &a.ID,
		ParentProvided: true,
		ActorID:        "tester",
	})
	if err == nil {
		t.Fatalf("expected self-parent rejection")
	}
}

func TestBreadcrumbs(t *testing.T) {
	env := newTestEnv(t)
	root := createDept(t, env, "Operations", "")
	mid := createDept(t, env, "Manufacturing", root.ID)
	leaf := createDept(t, env, "Packaging", mid.ID)

	chain, err := env.Engine.DepartmentBreadcrumbs(env.Ctx, leaf.ID)
	if err != nil {
		t.Fatalf("breadcrumbs: %v", err)
	}
	if len(chain) != 3 || chain[0].ID != root.ID || chain[2].ID != leaf.ID {
		t.Fatalf("unexpected chain: %v", chain)
	}
}

func TestBreadcrumbsDepthCapped(t *testing.T) {
	env := newTestEnv(t)
	parent := ""
	var last domain.Department
	for i := 0; i < 25; i++ {
		last = createDept(t, env, fmt.Sprintf("L%d", i), parent)
		parent = last.ID
	}
	chain, err := env.Engine.DepartmentBreadcrumbs(env.Ctx, last.ID)
	if err != nil {
		t.Fatalf("breadcrumbs: %v", err)
	}
	if len(chain) > 20 {
		t.Fatalf("chain length %d exceeds cap", len(chain))
	}
}

func TestRoleOptionsUseNames(t *testing.T) {
	env := newTestEnv(t)
	role, err := env.Engine.CreateRole(env.Ctx, engine.RoleCreateOptions{
		Name:    "Plant Manager",
		TierID:  "managerial",
		ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if role.RaciType != "responsible" {
		t.Fatalf("default raci = %s", role.RaciType)
	}
	opts, err := env.Engine.RoleOptions(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 1 || opts[0].Value != "Plant Manager" {
		t.Fatalf("option value should be the role name, got %v", opts)
	}
}

func TestRoleValidation(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateRole(env.Ctx, engine.RoleCreateOptions{Name: "x", TierID: "executive", ActorID: "t"}); err == nil {
		t.Fatalf("expected unknown tier rejection")
	}
	if _, err := env.Engine.CreateRole(env.Ctx, engine.RoleCreateOptions{Name: "x", TierID: "strategic", RaciType: "owner", ActorID: "t"}); err == nil {
		t.Fatalf("expected invalid raci rejection")
	}
}

func TestDeadHeadReferenceSurvivesAndAudits(t *testing.T) {
	env := newTestEnv(t)
	role, err := env.Engine.CreateRole(env.Ctx, engine.RoleCreateOptions{Name: "COO", TierID: "strategic", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	d, err := env.Engine.CreateDepartment(env.Ctx, engine.DepartmentCreateOptions{
		Name:             "Operations",
		HeadOfDepartment: role.Name,
		ActorID:          "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteRole(env.Ctx, role.ID, "tester"); err != nil {
		t.Fatal(err)
	}

	got, err := env.Engine.Repo.GetDepartment(env.Ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.HeadOfDepartment != "COO" {
		t.Fatalf("head reference should survive role deletion, got %q", got.HeadOfDepartment)
	}

	refs, err := env.Engine.DanglingReferences(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Field != "head_of_department" || refs[0].Missing != "COO" {
		t.Fatalf("unexpected audit result: %v", refs)
	}
}

func TestTiersAreFixed(t *testing.T) {
	env := newTestEnv(t)
	tiers, err := env.Engine.Repo.ListTiers(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}
	name := "Leadership"
	tier, err := env.Engine.UpdateTier(env.Ctx, engine.TierUpdateOptions{ID: "strategic", Name: &name, ActorID: "tester"})
	if err != nil || tier.Name != "Leadership" {
		t.Fatalf("relabel: %v", err)
	}
	if _, err := env.Engine.UpdateTier(env.Ctx, engine.TierUpdateOptions{ID: "board", Name: &name, ActorID: "tester"}); err == nil {
		t.Fatalf("expected unknown tier rejection")
	}
}

func TestDepartmentIDsStartAt1001(t *testing.T) {
	env := newTestEnv(t)
	d := createDept(t, env, "First", "")
	if d.ID != "DEP-1001" {
		t.Fatalf("id = %s", d.ID)
	}
}
