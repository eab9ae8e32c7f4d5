package engine_test

import (
	"errors"
	"testing"

	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
	"opsdeck/internal/repo"
)

func createModule(t *testing.T, env testEnv) domain.WorkModule {
	t.Helper()
	d, err := env.Engine.CreateDepartment(env.Ctx, engine.DepartmentCreateOptions{Name: "Production", ActorID: "tester"})
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	m, err := env.Engine.CreateModule(env.Ctx, engine.ModuleCreateOptions{
		DepartmentID: d.ID,
		Name:         "Filling Line",
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create module: %v", err)
	}
	return m
}

func addTask(t *testing.T, env testEnv, moduleID, name, status string) domain.WorkTask {
	t.Helper()
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ModuleID: moduleID,
		Name:     name,
		Status:   status,
		ActorID:  "tester",
	})
	if err != nil {
		t.Fatalf("create task %s: %v", name, err)
	}
	return task
}

func TestModuleKpiScore(t *testing.T) {
	env := newTestEnv(t)
	m := createModule(t, env)

	stats, err := env.Engine.ModuleWithStats(env.Ctx, m.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.KpiScore != 0 || stats.RagStatus != "red" {
		t.Fatalf("empty module: kpi=%v rag=%s", stats.KpiScore, stats.RagStatus)
	}

	// 3 tasks: one completed, one in progress, one not started
	// (100/3)*(1 + 0.5) = 50.0
	addTask(t, env, m.ID, "completed task", "completed")
	addTask(t, env, m.ID, "running task", "in_progress")
	addTask(t, env, m.ID, "pending task", "not_started")

	stats, err = env.Engine.ModuleWithStats(env.Ctx, m.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.KpiScore != 50.0 {
		t.Fatalf("kpi = %v, want 50.0", stats.KpiScore)
	}
	if stats.RagStatus != "amber" {
		t.Fatalf("rag = %s, want amber", stats.RagStatus)
	}
	if stats.TaskWeight != 100.0/3.0 {
		t.Fatalf("weight = %v", stats.TaskWeight)
	}
}

func TestRagThresholds(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		score float64
		want  string
	}{
		{100, "green"},
		{75, "green"},
		{74.9, "amber"},
		{40, "amber"},
		{39.9, "red"},
		{0, "red"},
	}
	for _, tc := range cases {
		if got := env.Engine.ModuleRagStatus(tc.score); got != tc.want {
			t.Errorf("rag(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestKpiRoundsToOneDecimal(t *testing.T) {
	env := newTestEnv(t)
	m := createModule(t, env)
	// 3 tasks, one completed: (100/3)*1 = 33.333... -> 33.3
	addTask(t, env, m.ID, "a", "completed")
	addTask(t, env, m.ID, "b", "not_started")
	addTask(t, env, m.ID, "c", "not_started")
	stats, err := env.Engine.ModuleWithStats(env.Ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.KpiScore != 33.3 {
		t.Fatalf("kpi = %v, want 33.3", stats.KpiScore)
	}
}

func TestTaskControlStatus(t *testing.T) {
	env := newTestEnv(t)
	m := createModule(t, env)
	task := addTask(t, env, m.ID, "sanitize tank", "not_started")
	if engine.TaskControlStatus(task) != "uncontrolled" {
		t.Fatalf("expected uncontrolled without linked sops")
	}

	s, err := env.Engine.CreateSop(env.Ctx, engine.SopCreateOptions{Title: "Tank CIP", Owner: "QA", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	task, err = env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{
		ID:                  task.ID,
		LinkedSopIDs:        []string{s.ID},
		LinkedSopIDProvided: true,
		ActorID:             "tester",
	})
	if err != nil {
		t.Fatalf("link sop: %v", err)
	}
	if engine.TaskControlStatus(task) != "controlled" {
		t.Fatalf("expected controlled with a linked sop")
	}

	// clearing the set flips it back
	task, err = env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{
		ID:                  task.ID,
		LinkedSopIDs:        []string{},
		LinkedSopIDProvided: true,
		ActorID:             "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if engine.TaskControlStatus(task) != "uncontrolled" {
		t.Fatalf("expected uncontrolled after unlinking")
	}
}

func TestLinkUnknownSopRejected(t *testing.T) {
	env := newTestEnv(t)
	m := createModule(t, env)
	_, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ModuleID:     m.ID,
		Name:         "ghost link",
		LinkedSopIDs: []string{"SOP-999"},
		ActorID:      "tester",
	})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestModuleDeleteCascadesTasks(t *testing.T) {
	env := newTestEnv(t)
	m := createModule(t, env)
	task := addTask(t, env, m.ID, "doomed", "not_started")

	if err := env.Engine.DeleteModule(env.Ctx, m.ID, "tester"); err != nil {
		t.Fatalf("delete module: %v", err)
	}
	if _, err := env.Engine.Repo.GetTask(env.Ctx, task.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected cascaded task delete, got %v", err)
	}
}

func TestSuggestIOOnCreate(t *testing.T) {
	env := newTestEnv(t)
	m := createModule(t, env)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ModuleID:  m.ID,
		Name:      "Daily cleaning round",
		SuggestIO: true,
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(task.Inputs) == 0 || len(task.Outputs) == 0 {
		t.Fatalf("expected suggested io, got %d/%d", len(task.Inputs), len(task.Outputs))
	}
}

func TestTaskIDsArePrefixed(t *testing.T) {
	env := newTestEnv(t)
	m := createModule(t, env)
	if m.ID != "MOD-001" {
		t.Fatalf("module id = %s", m.ID)
	}
	a := addTask(t, env, m.ID, "first", "not_started")
	b := addTask(t, env, m.ID, "second", "not_started")
	if a.ID != "TSK-001" || b.ID != "TSK-002" {
		t.Fatalf("task ids = %s, %s", a.ID, b.ID)
	}
}
