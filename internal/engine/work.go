package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"opsdeck/internal/domain"
	"opsdeck/internal/engine/taskio"
	"opsdeck/internal/events"
)

func validateRiskLevel(level string) error {
	switch level {
	case "low", "medium", "high", "critical":
		return nil
	}
	return fmt.Errorf("invalid risk level %s", level)
}

func validateTaskStatus(status string) error {
	switch status {
	case domain.TaskStatusNotStarted, domain.TaskStatusInProgress, domain.TaskStatusCompleted:
		return nil
	}
	return fmt.Errorf("invalid task status %s", status)
}

// --- modules ---

type ModuleCreateOptions struct {
	DepartmentID string
	Name         string
	Description  string
	Owner        string
	RiskLevel    string
	ActorID      string
}

func (e Engine) CreateModule(ctx context.Context, opts ModuleCreateOptions) (domain.WorkModule, error) {
	if opts.Name == "" {
		return domain.WorkModule{}, errors.New("name is required")
	}
	if opts.DepartmentID == "" {
		return domain.WorkModule{}, errors.New("department_id is required")
	}
	if _, err := e.Repo.GetDepartment(ctx, opts.DepartmentID); err != nil {
		return domain.WorkModule{}, fmt.Errorf("department %s: %w", opts.DepartmentID, err)
	}
	if opts.RiskLevel == "" {
		opts.RiskLevel = "medium"
	}
	if err := validateRiskLevel(opts.RiskLevel); err != nil {
		return domain.WorkModule{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkModule{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.NextID(ctx, tx, "MOD")
	if err != nil {
		return domain.WorkModule{}, err
	}
	m := domain.WorkModule{
		ID:           id,
		DepartmentID: opts.DepartmentID,
		Name:         opts.Name,
		Description:  opts.Description,
		Owner:        opts.Owner,
		RiskLevel:    opts.RiskLevel,
		CreatedAt:    e.nowRFC3339(),
	}
	if err := e.Repo.InsertModule(ctx, tx, m); err != nil {
		return domain.WorkModule{}, err
	}
	if err := e.Events.Append(ctx, tx, "module.created", "module", m.ID, opts.ActorID, events.EventPayload{"name": m.Name}); err != nil {
		return domain.WorkModule{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkModule{}, err
	}
	return m, nil
}

type ModuleUpdateOptions struct {
	ID           string
	DepartmentID *string
	Name         *string
	Description  *string
	Owner        *string
	RiskLevel    *string
	ActorID      string
}

func (e Engine) UpdateModule(ctx context.Context, opts ModuleUpdateOptions) (domain.WorkModule, error) {
	m, err := e.Repo.GetModule(ctx, opts.ID)
	if err != nil {
		return m, err
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return m, errors.New("name is required")
		}
		m.Name = *opts.Name
	}
	if opts.DepartmentID != nil {
		if _, err := e.Repo.GetDepartment(ctx, *opts.DepartmentID); err != nil {
			return m, fmt.Errorf("department %s: %w", *opts.DepartmentID, err)
		}
		m.DepartmentID = *opts.DepartmentID
	}
	if opts.Description != nil {
		m.Description = *opts.Description
	}
	if opts.Owner != nil {
		m.Owner = *opts.Owner
	}
	if opts.RiskLevel != nil {
		if err := validateRiskLevel(*opts.RiskLevel); err != nil {
			return m, err
		}
		m.RiskLevel = *opts.RiskLevel
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return m, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateModule(ctx, tx, m); err != nil {
		return m, err
	}
	if err := e.Events.Append(ctx, tx, "module.updated", "module", m.ID, opts.ActorID, events.EventPayload{"name": m.Name}); err != nil {
		return m, err
	}
	if err := tx.Commit(); err != nil {
		return m, err
	}
	return m, nil
}

// DeleteModule removes the module and all of its tasks.
func (e Engine) DeleteModule(ctx context.Context, id, actorID string) error {
	m, err := e.Repo.GetModule(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteModule(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "module.deleted", "module", id, actorID, events.EventPayload{"name": m.Name}); err != nil {
		return err
	}
	return tx.Commit()
}

// --- tasks ---

type TaskCreateOptions struct {
	ModuleID     string
	Operation    string
	Name         string
	Description  string
	Owner        string
	RiskLevel    string
	Status       string
	Inputs       []domain.TaskIO
	Outputs      []domain.TaskIO
	LinkedSopIDs []string
	SuggestIO    bool
	ActorID      string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.WorkTask, error) {
	if opts.Name == "" {
		return domain.WorkTask{}, errors.New("name is required")
	}
	if opts.ModuleID == "" {
		return domain.WorkTask{}, errors.New("module_id is required")
	}
	if _, err := e.Repo.GetModule(ctx, opts.ModuleID); err != nil {
		return domain.WorkTask{}, fmt.Errorf("module %s: %w", opts.ModuleID, err)
	}
	if opts.RiskLevel == "" {
		opts.RiskLevel = "medium"
	}
	if err := validateRiskLevel(opts.RiskLevel); err != nil {
		return domain.WorkTask{}, err
	}
	if opts.Status == "" {
		opts.Status = domain.TaskStatusNotStarted
	}
	if err := validateTaskStatus(opts.Status); err != nil {
		return domain.WorkTask{}, err
	}
	if err := e.checkLinkedSops(ctx, opts.LinkedSopIDs); err != nil {
		return domain.WorkTask{}, err
	}
	inputs, outputs := opts.Inputs, opts.Outputs
	if opts.SuggestIO && len(inputs) == 0 && len(outputs) == 0 {
		inputs, outputs = taskio.Generate(opts.Name)
	}
	ensureIOIDs(inputs)
	ensureIOIDs(outputs)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkTask{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.NextID(ctx, tx, "TSK")
	if err != nil {
		return domain.WorkTask{}, err
	}
	t := domain.WorkTask{
		ID:           id,
		ModuleID:     opts.ModuleID,
		Operation:    opts.Operation,
		Name:         opts.Name,
		Description:  opts.Description,
		Owner:        opts.Owner,
		RiskLevel:    opts.RiskLevel,
		Status:       opts.Status,
		Inputs:       inputs,
		Outputs:      outputs,
		LinkedSopIDs: opts.LinkedSopIDs,
		CreatedAt:    e.nowRFC3339(),
	}
	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.WorkTask{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.created", "task", t.ID, opts.ActorID, events.EventPayload{"name": t.Name}); err != nil {
		return domain.WorkTask{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkTask{}, err
	}
	return t, nil
}

// TaskUpdateOptions patches a task field by field. Inputs, Outputs and
// LinkedSopIDs replace wholesale when provided; the Provided flags allow
// clearing to empty.
type TaskUpdateOptions struct {
	ID                  string
	Operation           *string
	Name                *string
	Description         *string
	Owner               *string
	RiskLevel           *string
	Status              *string
	Inputs              []domain.TaskIO
	InputsProvided      bool
	Outputs             []domain.TaskIO
	OutputsProvided     bool
	LinkedSopIDs        []string
	LinkedSopIDProvided bool
	ActorID             string
}

func (e Engine) UpdateTask(ctx context.Context, opts TaskUpdateOptions) (domain.WorkTask, error) {
	t, err := e.Repo.GetTask(ctx, opts.ID)
	if err != nil {
		return t, err
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return t, errors.New("name is required")
		}
		t.Name = *opts.Name
	}
	if opts.Operation != nil {
		t.Operation = *opts.Operation
	}
	if opts.Description != nil {
		t.Description = *opts.Description
	}
	if opts.Owner != nil {
		t.Owner = *opts.Owner
	}
	if opts.RiskLevel != nil {
		if err := validateRiskLevel(*opts.RiskLevel); err != nil {
			return t, err
		}
		t.RiskLevel = *opts.RiskLevel
	}
	if opts.Status != nil {
		if err := validateTaskStatus(*opts.Status); err != nil {
			return t, err
		}
		t.Status = *opts.Status
	}
	if opts.InputsProvided {
		ensureIOIDs(opts.Inputs)
		t.Inputs = opts.Inputs
	}
	if opts.OutputsProvided {
		ensureIOIDs(opts.Outputs)
		t.Outputs = opts.Outputs
	}
	if opts.LinkedSopIDProvided {
		if err := e.checkLinkedSops(ctx, opts.LinkedSopIDs); err != nil {
			return t, err
		}
		t.LinkedSopIDs = opts.LinkedSopIDs
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.Events.Append(ctx, tx, "task.updated", "task", t.ID, opts.ActorID, events.EventPayload{"name": t.Name}); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

func (e Engine) DeleteTask(ctx context.Context, id, actorID string) error {
	t, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTask(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "task.deleted", "task", id, actorID, events.EventPayload{"name": t.Name}); err != nil {
		return err
	}
	return tx.Commit()
}

// SuggestTaskIO previews the keyword heuristic for a task name without
// touching storage.
func (e Engine) SuggestTaskIO(name string) ([]domain.TaskIO, []domain.TaskIO) {
	return taskio.Generate(name)
}

func (e Engine) checkLinkedSops(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := e.Repo.GetSop(ctx, id); err != nil {
			return fmt.Errorf("linked sop %s: %w", id, err)
		}
	}
	return nil
}

func ensureIOIDs(ios []domain.TaskIO) {
	for i := range ios {
		if ios[i].ID == "" {
			ios[i].ID = uuid.New().String()
		}
	}
}

// --- derivations ---

// TaskControlStatus is controlled exactly when the task links at least one
// SOP.
func TaskControlStatus(t domain.WorkTask) string {
	if len(t.LinkedSopIDs) > 0 {
		return domain.ControlStatusControlled
	}
	return domain.ControlStatusUncontrolled
}

// TaskWeight is each task's even share of a module with n tasks.
func TaskWeight(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 100.0 / float64(n)
}

// TaskKpiScore is one task's weighted contribution to its module's KPI.
func (e Engine) TaskKpiScore(t domain.WorkTask, weight float64) float64 {
	switch t.Status {
	case domain.TaskStatusCompleted:
		return weight * e.Config.KPI.Weights.Completed
	case domain.TaskStatusInProgress:
		return weight * e.Config.KPI.Weights.InProgress
	default:
		return 0
	}
}

// ModuleKpiScore computes weighted completion over the module's tasks,
// rounded to one decimal. A module with no tasks scores 0.
func (e Engine) ModuleKpiScore(tasks []domain.WorkTask) float64 {
	if len(tasks) == 0 {
		return 0
	}
	weight := TaskWeight(len(tasks))
	score := 0.0
	for _, t := range tasks {
		score += e.TaskKpiScore(t, weight)
	}
	return math.Round(score*10) / 10
}

// ModuleRagStatus buckets a KPI score against the configured thresholds.
func (e Engine) ModuleRagStatus(score float64) string {
	switch {
	case score >= e.Config.KPI.RAG.Green:
		return domain.RagGreen
	case score >= e.Config.KPI.RAG.Amber:
		return domain.RagAmber
	default:
		return domain.RagRed
	}
}

// ModuleStats is a module annotated with its derived KPI numbers.
type ModuleStats struct {
	Module     domain.WorkModule `json:"module"`
	TaskCount  int               `json:"task_count"`
	TaskWeight float64           `json:"task_weight"`
	KpiScore   float64           `json:"kpi_score"`
	RagStatus  string            `json:"rag_status" enum:"green,amber,red"`
}

func (e Engine) ModuleWithStats(ctx context.Context, id string) (ModuleStats, error) {
	m, err := e.Repo.GetModule(ctx, id)
	if err != nil {
		return ModuleStats{}, err
	}
	tasks, err := e.Repo.ListTasks(ctx, id)
	if err != nil {
		return ModuleStats{}, err
	}
	return e.moduleStats(m, tasks), nil
}

func (e Engine) ListModulesWithStats(ctx context.Context, departmentID string) ([]ModuleStats, error) {
	modules, err := e.Repo.ListModules(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	out := make([]ModuleStats, 0, len(modules))
	for _, m := range modules {
		tasks, err := e.Repo.ListTasks(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, e.moduleStats(m, tasks))
	}
	return out, nil
}

func (e Engine) moduleStats(m domain.WorkModule, tasks []domain.WorkTask) ModuleStats {
	score := e.ModuleKpiScore(tasks)
	return ModuleStats{
		Module:     m,
		TaskCount:  len(tasks),
		TaskWeight: TaskWeight(len(tasks)),
		KpiScore:   score,
		RagStatus:  e.ModuleRagStatus(score),
	}
}
