package engine_test

import (
	"errors"
	"testing"

	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
)

func createSop(t *testing.T, env testEnv) domain.SOPRecord {
	t.Helper()
	s, err := env.Engine.CreateSop(env.Ctx, engine.SopCreateOptions{
		Title:   "Line Cleaning",
		Owner:   "Production Manager",
		Steps:   []domain.SOPStep{{Instruction: "Drain the line"}, {Instruction: "Flush with water"}},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create sop: %v", err)
	}
	return s
}

func TestSopStartsAsDraftV01(t *testing.T) {
	env := newTestEnv(t)
	s := createSop(t, env)
	if s.Status != "draft" || s.CurrentVersion != "v0.1" {
		t.Fatalf("got status=%s version=%s", s.Status, s.CurrentVersion)
	}
	versions, err := env.Engine.SopVersions(env.Ctx, s.ID)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 1 || versions[0].Version != "v0.1" {
		t.Fatalf("expected one v0.1 snapshot, got %v", versions)
	}
}

func TestSopLifecycleTransitions(t *testing.T) {
	env := newTestEnv(t)
	s := createSop(t, env)

	// skipping a stage is rejected
	if _, err := env.Engine.TransitionStatus(env.Ctx, s.ID, "approved", "tester", false); err == nil {
		t.Fatalf("expected transition error draft -> approved")
	}

	s, err := env.Engine.TransitionStatus(env.Ctx, s.ID, "in_review", "reviewer", false)
	if err != nil || s.Status != "in_review" {
		t.Fatalf("to in_review: %v", err)
	}
	s, err = env.Engine.TransitionStatus(env.Ctx, s.ID, "approved", "qa-lead", false)
	if err != nil {
		t.Fatalf("to approved: %v", err)
	}
	if s.ApprovedBy != "qa-lead" {
		t.Fatalf("approved_by = %q", s.ApprovedBy)
	}
	s, err = env.Engine.TransitionStatus(env.Ctx, s.ID, "effective", "qa-lead", false)
	if err != nil {
		t.Fatalf("to effective: %v", err)
	}
	if s.EffectiveDate != "2026-03-01" {
		t.Fatalf("effective_date = %q", s.EffectiveDate)
	}

	// backward move only with force
	if _, err := env.Engine.TransitionStatus(env.Ctx, s.ID, "draft", "tester", false); err == nil {
		t.Fatalf("expected transition error effective -> draft")
	}
	if _, err := env.Engine.TransitionStatus(env.Ctx, s.ID, "draft", "tester", true); err != nil {
		t.Fatalf("forced transition: %v", err)
	}
}

func TestEffectiveSopLocksContent(t *testing.T) {
	env := newTestEnv(t)
	s := createSop(t, env)
	s, _ = env.Engine.TransitionStatus(env.Ctx, s.ID, "in_review", "tester", false)
	s, _ = env.Engine.TransitionStatus(env.Ctx, s.ID, "approved", "tester", false)
	s, _ = env.Engine.TransitionStatus(env.Ctx, s.ID, "effective", "tester", false)

	title := "New Title"
	_, err := env.Engine.UpdateSop(env.Ctx, engine.SopUpdateOptions{ID: s.ID, Title: &title, ActorID: "tester"})
	if !errors.Is(err, engine.ErrSopLocked) {
		t.Fatalf("expected ErrSopLocked, got %v", err)
	}
	instruction := "Extra step"
	if _, err := env.Engine.AddStep(env.Ctx, s.ID, engine.StepOptions{Instruction: &instruction}, "tester", false); !errors.Is(err, engine.ErrSopLocked) {
		t.Fatalf("expected ErrSopLocked on add step, got %v", err)
	}
	// force override still works
	if _, err := env.Engine.UpdateSop(env.Ctx, engine.SopUpdateOptions{ID: s.ID, Title: &title, ActorID: "tester", Force: true}); err != nil {
		t.Fatalf("forced update: %v", err)
	}
}

func TestCreateNewVersionBumpsMajor(t *testing.T) {
	env := newTestEnv(t)
	s := createSop(t, env)
	s, _ = env.Engine.TransitionStatus(env.Ctx, s.ID, "in_review", "tester", false)
	s, _ = env.Engine.TransitionStatus(env.Ctx, s.ID, "approved", "approver", false)

	s, err := env.Engine.CreateNewVersion(env.Ctx, s.ID, "tester")
	if err != nil {
		t.Fatalf("new version: %v", err)
	}
	if s.CurrentVersion != "v1.0" {
		t.Fatalf("version = %s, want v1.0", s.CurrentVersion)
	}
	if s.Status != "draft" || s.ApprovedBy != "" {
		t.Fatalf("expected reset to draft with approval cleared, got %s/%q", s.Status, s.ApprovedBy)
	}
	if s.ID != "SOP-001" {
		t.Fatalf("id changed: %s", s.ID)
	}
	versions, _ := env.Engine.SopVersions(env.Ctx, s.ID)
	if len(versions) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(versions))
	}

	s, err = env.Engine.CreateNewVersion(env.Ctx, s.ID, "tester")
	if err != nil || s.CurrentVersion != "v2.0" {
		t.Fatalf("second bump: %s %v", s.CurrentVersion, err)
	}
}

func TestVersionSnapshotsAreImmutable(t *testing.T) {
	env := newTestEnv(t)
	s := createSop(t, env)
	before, _ := env.Engine.SopVersions(env.Ctx, s.ID)

	instruction := "Added later"
	if _, err := env.Engine.AddStep(env.Ctx, s.ID, engine.StepOptions{Instruction: &instruction}, "tester", false); err != nil {
		t.Fatalf("add step: %v", err)
	}
	after, _ := env.Engine.SopVersions(env.Ctx, s.ID)
	if len(after[0].Steps) != len(before[0].Steps) {
		t.Fatalf("snapshot changed after step edit")
	}
}

func TestStepOperations(t *testing.T) {
	env := newTestEnv(t)
	s := createSop(t, env)

	instruction := "Inspect seals"
	s, err := env.Engine.AddStep(env.Ctx, s.ID, engine.StepOptions{Instruction: &instruction}, "tester", false)
	if err != nil || len(s.Steps) != 3 {
		t.Fatalf("add step: %v (steps=%d)", err, len(s.Steps))
	}

	ids := []string{s.Steps[2].ID, s.Steps[0].ID, s.Steps[1].ID}
	s, err = env.Engine.ReorderSteps(env.Ctx, s.ID, ids, "tester", false)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if s.Steps[0].Instruction != "Inspect seals" {
		t.Fatalf("reorder did not apply: %v", s.Steps[0].Instruction)
	}

	// reorder must cover every step
	if _, err := env.Engine.ReorderSteps(env.Ctx, s.ID, ids[:2], "tester", false); err == nil {
		t.Fatalf("expected reorder length error")
	}

	s, err = env.Engine.RemoveStep(env.Ctx, s.ID, s.Steps[0].ID, "tester", false)
	if err != nil || len(s.Steps) != 2 {
		t.Fatalf("remove step: %v", err)
	}
}

func TestDeleteProcessKeepsSops(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProcess(env.Ctx, engine.ProcessCreateOptions{Name: "Packaging", ActorID: "tester"})
	if err != nil {
		t.Fatalf("create process: %v", err)
	}
	s, err := env.Engine.CreateSop(env.Ctx, engine.SopCreateOptions{
		Title:             "Box Sealing",
		Owner:             "Line Lead",
		BusinessProcessID: p.ID,
		ActorID:           "tester",
	})
	if err != nil {
		t.Fatalf("create sop: %v", err)
	}
	if err := env.Engine.DeleteProcess(env.Ctx, p.ID, "tester"); err != nil {
		t.Fatalf("delete process: %v", err)
	}
	s, err = env.Engine.Repo.GetSop(env.Ctx, s.ID)
	if err != nil {
		t.Fatalf("sop gone after process delete: %v", err)
	}
	if s.BusinessProcessID != nil {
		t.Fatalf("expected process link cleared, got %v", *s.BusinessProcessID)
	}
}

func TestParseUnparseableVersionRestartsAtV1(t *testing.T) {
	env := newTestEnv(t)
	s := createSop(t, env)
	garbage := s
	garbage.CurrentVersion = "rev-A"
	tx, err := env.Engine.DB.BeginTx(env.Ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.Repo.UpdateSop(env.Ctx, tx, garbage); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	s, err = env.Engine.CreateNewVersion(env.Ctx, s.ID, "tester")
	if err != nil || s.CurrentVersion != "v1.0" {
		t.Fatalf("got %s %v, want v1.0", s.CurrentVersion, err)
	}
}
