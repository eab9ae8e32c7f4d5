package domain

// SOP lifecycle statuses, forward order.
const (
	SopStatusDraft     = "draft"
	SopStatusInReview  = "in_review"
	SopStatusApproved  = "approved"
	SopStatusEffective = "effective"
)

// Work task completion statuses.
const (
	TaskStatusNotStarted = "not_started"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Derived control status of a task.
const (
	ControlStatusControlled   = "controlled"
	ControlStatusUncontrolled = "uncontrolled"
)

// RAG statuses derived from a module KPI score.
const (
	RagGreen = "green"
	RagAmber = "amber"
	RagRed   = "red"
)

// Tier identifiers. Fixed for the lifetime of the process.
const (
	TierStrategic   = "strategic"
	TierManagerial  = "managerial"
	TierOperational = "operational"
)
