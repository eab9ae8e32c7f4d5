package domain

// RoleTier is one of the three fixed organization tiers. The tier set
// (strategic, managerial, operational) never changes; only the labels do.
type RoleTier struct {
	ID          string `json:"id" enum:"strategic,managerial,operational"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type OrgRole struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TierID      string `json:"tier_id" enum:"strategic,managerial,operational"`
	RaciType    string `json:"raci_type" enum:"responsible,accountable,consulted,informed"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

// RoleOption is a label/value pair for role pickers. Value is the role
// name, not the id: departments reference their head by name.
type RoleOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Department struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	HeadOfDepartment string  `json:"head_of_department,omitempty"`
	ParentID         *string `json:"parent_id,omitempty"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
}

type BusinessProcess struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type TaskIO struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type" enum:"document,material,data,approval,other"`
	Description string `json:"description,omitempty"`
}

type SOPStep struct {
	ID                  string   `json:"id"`
	Instruction         string   `json:"instruction"`
	RequirePhoto        bool     `json:"require_photo"`
	RequireEvidenceFile bool     `json:"require_evidence_file"`
	RequireMeasurement  bool     `json:"require_measurement"`
	Inputs              []TaskIO `json:"inputs,omitempty"`
	Outputs             []TaskIO `json:"outputs,omitempty"`
}

// SOPVersion is an immutable snapshot cut whenever a new version of a SOP
// is created. Snapshots belong to their SOP and are never edited.
type SOPVersion struct {
	ID         string    `json:"id"`
	SopID      string    `json:"sop_id"`
	Version    string    `json:"version"`
	Status     string    `json:"status" enum:"draft,in_review,approved,effective"`
	CreatedAt  string    `json:"created_at" format:"date-time"`
	CreatedBy  string    `json:"created_by"`
	Steps      []SOPStep `json:"steps,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	AIAnalysis string    `json:"ai_analysis,omitempty"`
}

type SOPRecord struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Format            string    `json:"format" enum:"block,file"`
	Owner             string    `json:"owner"`
	LastEditedBy      string    `json:"last_edited_by,omitempty"`
	ApprovedBy        string    `json:"approved_by,omitempty"`
	CurrentVersion    string    `json:"current_version"`
	Status            string    `json:"status" enum:"draft,in_review,approved,effective"`
	EffectiveDate     string    `json:"effective_date,omitempty"`
	CreatedAt         string    `json:"created_at" format:"date-time"`
	Steps             []SOPStep `json:"steps,omitempty"`
	FileName          string    `json:"file_name,omitempty"`
	AIAnalysis        string    `json:"ai_analysis,omitempty"`
	BusinessProcessID *string   `json:"business_process_id,omitempty"`
}

type WorkModule struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Owner        string `json:"owner"`
	RiskLevel    string `json:"risk_level" enum:"low,medium,high,critical"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type WorkTask struct {
	ID           string   `json:"id"`
	ModuleID     string   `json:"module_id"`
	Operation    string   `json:"operation,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Owner        string   `json:"owner"`
	RiskLevel    string   `json:"risk_level" enum:"low,medium,high,critical"`
	Status       string   `json:"status" enum:"not_started,in_progress,completed"`
	Inputs       []TaskIO `json:"inputs,omitempty"`
	Outputs      []TaskIO `json:"outputs,omitempty"`
	LinkedSopIDs []string `json:"linked_sop_ids,omitempty"`
	CreatedAt    string   `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// DanglingReference names an entity field whose denormalized reference no
// longer resolves. Data-quality report material, not an error condition.
type DanglingReference struct {
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Field      string `json:"field"`
	Missing    string `json:"missing"`
}
