package server

import (
	"opsdeck/internal/config"
	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
)

// Request payloads

type TaskIORequest struct {
	ID          string `json:"id,omitempty"`
	Label       string `json:"label"`
	Type        string `json:"type" enum:"document,material,data,approval,other"`
	Description string `json:"description,omitempty"`
}

type StepRequest struct {
	Instruction         string          `json:"instruction"`
	RequirePhoto        bool            `json:"require_photo,omitempty"`
	RequireEvidenceFile bool            `json:"require_evidence_file,omitempty"`
	RequireMeasurement  bool            `json:"require_measurement,omitempty"`
	Inputs              []TaskIORequest `json:"inputs,omitempty"`
	Outputs             []TaskIORequest `json:"outputs,omitempty"`
}

type UpdateStepRequest struct {
	Instruction         *string         `json:"instruction,omitempty"`
	RequirePhoto        *bool           `json:"require_photo,omitempty"`
	RequireEvidenceFile *bool           `json:"require_evidence_file,omitempty"`
	RequireMeasurement  *bool           `json:"require_measurement,omitempty"`
	Inputs              []TaskIORequest `json:"inputs,omitempty"`
	Outputs             []TaskIORequest `json:"outputs,omitempty"`
}

type CreateSopRequest struct {
	Title             string        `json:"title"`
	Format            string        `json:"format,omitempty" enum:"block,file"`
	Owner             string        `json:"owner"`
	Steps             []StepRequest `json:"steps,omitempty"`
	FileName          string        `json:"file_name,omitempty"`
	BusinessProcessID string        `json:"business_process_id,omitempty"`
}

type UpdateSopRequest struct {
	Title             *string `json:"title,omitempty"`
	Format            *string `json:"format,omitempty" enum:"block,file"`
	Owner             *string `json:"owner,omitempty"`
	FileName          *string `json:"file_name,omitempty"`
	BusinessProcessID *string `json:"business_process_id,omitempty"`
	ClearProcess      bool    `json:"clear_process,omitempty"`
}

type TransitionSopRequest struct {
	Status string `json:"status" enum:"draft,in_review,approved,effective"`
}

type ReorderStepsRequest struct {
	StepIDs []string `json:"step_ids"`
}

type AnalyzeSopRequest struct {
	FileName     string `json:"file_name,omitempty"`
	FileContent  string `json:"file_content"`
	ExtractSteps bool   `json:"extract_steps,omitempty"`
}

type CreateProcessRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UpdateProcessRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateModuleRequest struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Owner        string `json:"owner,omitempty"`
	RiskLevel    string `json:"risk_level,omitempty" enum:"low,medium,high,critical"`
}

type UpdateModuleRequest struct {
	DepartmentID *string `json:"department_id,omitempty"`
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Owner        *string `json:"owner,omitempty"`
	RiskLevel    *string `json:"risk_level,omitempty" enum:"low,medium,high,critical"`
}

type CreateTaskRequest struct {
	ModuleID     string          `json:"module_id"`
	Operation    string          `json:"operation,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Owner        string          `json:"owner,omitempty"`
	RiskLevel    string          `json:"risk_level,omitempty" enum:"low,medium,high,critical"`
	Status       string          `json:"status,omitempty" enum:"not_started,in_progress,completed"`
	Inputs       []TaskIORequest `json:"inputs,omitempty"`
	Outputs      []TaskIORequest `json:"outputs,omitempty"`
	LinkedSopIDs []string        `json:"linked_sop_ids,omitempty"`
	SuggestIO    bool            `json:"suggest_io,omitempty"`
}

type UpdateTaskRequest struct {
	Operation    *string          `json:"operation,omitempty"`
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Owner        *string          `json:"owner,omitempty"`
	RiskLevel    *string          `json:"risk_level,omitempty" enum:"low,medium,high,critical"`
	Status       *string          `json:"status,omitempty" enum:"not_started,in_progress,completed"`
	Inputs       *[]TaskIORequest `json:"inputs,omitempty"`
	Outputs      *[]TaskIORequest `json:"outputs,omitempty"`
	LinkedSopIDs *[]string        `json:"linked_sop_ids,omitempty"`
}

type CreateDepartmentRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	HeadOfDepartment string `json:"head_of_department,omitempty"`
	ParentID         string `json:"parent_id,omitempty"`
}

type UpdateDepartmentRequest struct {
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	HeadOfDepartment *string `json:"head_of_department,omitempty"`
	ParentID         *string `json:"parent_id,omitempty"`
	ClearParent      bool    `json:"clear_parent,omitempty"`
}

type CreateRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TierID      string `json:"tier_id" enum:"strategic,managerial,operational"`
	RaciType    string `json:"raci_type,omitempty" enum:"responsible,accountable,consulted,informed"`
}

type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	TierID      *string `json:"tier_id,omitempty" enum:"strategic,managerial,operational"`
	RaciType    *string `json:"raci_type,omitempty" enum:"responsible,accountable,consulted,informed"`
}

type UpdateTierRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ConfigBody mirrors the stored config in JSON form for GET and PUT.
type ConfigBody struct {
	Org struct {
		Tiers map[string]TierLabelsBody `json:"tiers,omitempty"`
	} `json:"org"`
	KPI struct {
		Weights struct {
			Completed  float64 `json:"completed"`
			InProgress float64 `json:"in_progress"`
		} `json:"weights"`
		RAG struct {
			Green float64 `json:"green"`
			Amber float64 `json:"amber"`
		} `json:"rag"`
	} `json:"kpi"`
	Analysis struct {
		URL            string `json:"url,omitempty"`
		APIKey         string `json:"api_key,omitempty"`
		TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	} `json:"analysis"`
}

type TierLabelsBody struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func configBody(cfg *config.Config) ConfigBody {
	var body ConfigBody
	body.Org.Tiers = map[string]TierLabelsBody{}
	for id, labels := range cfg.Org.Tiers {
		body.Org.Tiers[id] = TierLabelsBody{Name: labels.Name, Description: labels.Description}
	}
	body.KPI.Weights.Completed = cfg.KPI.Weights.Completed
	body.KPI.Weights.InProgress = cfg.KPI.Weights.InProgress
	body.KPI.RAG.Green = cfg.KPI.RAG.Green
	body.KPI.RAG.Amber = cfg.KPI.RAG.Amber
	body.Analysis.URL = cfg.Analysis.URL
	body.Analysis.APIKey = cfg.Analysis.APIKey
	body.Analysis.TimeoutSeconds = cfg.Analysis.TimeoutSeconds
	return body
}

func configFromBody(body ConfigBody) *config.Config {
	cfg := &config.Config{}
	cfg.Org.Tiers = map[string]config.TierLabels{}
	for id, labels := range body.Org.Tiers {
		cfg.Org.Tiers[id] = config.TierLabels{Name: labels.Name, Description: labels.Description}
	}
	cfg.KPI.Weights.Completed = body.KPI.Weights.Completed
	cfg.KPI.Weights.InProgress = body.KPI.Weights.InProgress
	cfg.KPI.RAG.Green = body.KPI.RAG.Green
	cfg.KPI.RAG.Amber = body.KPI.RAG.Amber
	cfg.Analysis.URL = body.Analysis.URL
	cfg.Analysis.APIKey = body.Analysis.APIKey
	cfg.Analysis.TimeoutSeconds = body.Analysis.TimeoutSeconds
	return cfg
}

// Response payloads

// TaskResponse is a work task plus its derived control status.
type TaskResponse struct {
	domain.WorkTask
	ControlStatus string `json:"control_status" enum:"controlled,uncontrolled"`
}

func taskResponse(t domain.WorkTask) TaskResponse {
	return TaskResponse{WorkTask: t, ControlStatus: engine.TaskControlStatus(t)}
}

func taskResponses(tasks []domain.WorkTask) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse(t))
	}
	return out
}

// SopResponse is a SOP record plus its version history when requested.
type SopResponse struct {
	domain.SOPRecord
	Versions []domain.SOPVersion `json:"versions,omitempty"`
}

func fromIORequests(reqs []TaskIORequest) []domain.TaskIO {
	if reqs == nil {
		return nil
	}
	out := make([]domain.TaskIO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, domain.TaskIO{
			ID:          r.ID,
			Label:       r.Label,
			Type:        r.Type,
			Description: r.Description,
		})
	}
	return out
}

func fromStepRequests(reqs []StepRequest) []domain.SOPStep {
	out := make([]domain.SOPStep, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, domain.SOPStep{
			Instruction:         r.Instruction,
			RequirePhoto:        r.RequirePhoto,
			RequireEvidenceFile: r.RequireEvidenceFile,
			RequireMeasurement:  r.RequireMeasurement,
			Inputs:              fromIORequests(r.Inputs),
			Outputs:             fromIORequests(r.Outputs),
		})
	}
	return out
}
