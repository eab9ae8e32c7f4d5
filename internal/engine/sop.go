package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"opsdeck/internal/domain"
	"opsdeck/internal/events"
	"opsdeck/internal/repo"
)

// ErrSopLocked is returned when content edits hit an effective SOP. The
// caller either creates a new version or passes force as an explicit
// override.
var ErrSopLocked = errors.New("sop is effective; create a new version to edit content")

// ensureSopTransition enforces the forward-only lifecycle
// draft -> in_review -> approved -> effective. No skipping, no backward
// moves; force is the deliberate admin override.
func ensureSopTransition(oldStatus, newStatus string, force bool) error {
	if force {
		return nil
	}
	switch oldStatus {
	case domain.SopStatusDraft:
		if newStatus == domain.SopStatusInReview {
			return nil
		}
	case domain.SopStatusInReview:
		if newStatus == domain.SopStatusApproved {
			return nil
		}
	case domain.SopStatusApproved:
		if newStatus == domain.SopStatusEffective {
			return nil
		}
	}
	return fmt.Errorf("invalid sop status transition %s -> %s", oldStatus, newStatus)
}

func validateSopStatus(status string) error {
	switch status {
	case domain.SopStatusDraft, domain.SopStatusInReview, domain.SopStatusApproved, domain.SopStatusEffective:
		return nil
	}
	return fmt.Errorf("invalid sop status %s", status)
}

// SopCreateOptions are parameters for creating a SOP record.
type SopCreateOptions struct {
	Title             string
	Format            string
	Owner             string
	Steps             []domain.SOPStep
	FileName          string
	BusinessProcessID string
	ActorID           string
}

func (e Engine) CreateSop(ctx context.Context, opts SopCreateOptions) (domain.SOPRecord, error) {
	if opts.Title == "" {
		return domain.SOPRecord{}, errors.New("title is required")
	}
	if opts.Owner == "" {
		return domain.SOPRecord{}, errors.New("owner is required")
	}
	if opts.Format == "" {
		opts.Format = "block"
	}
	if opts.Format != "block" && opts.Format != "file" {
		return domain.SOPRecord{}, fmt.Errorf("invalid sop format %s", opts.Format)
	}
	if opts.BusinessProcessID != "" {
		if _, err := e.Repo.GetProcess(ctx, opts.BusinessProcessID); err != nil {
			return domain.SOPRecord{}, fmt.Errorf("business process %s: %w", opts.BusinessProcessID, err)
		}
	}
	for i := range opts.Steps {
		if opts.Steps[i].ID == "" {
			opts.Steps[i].ID = uuid.New().String()
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.SOPRecord{}, err
	}
	defer tx.Rollback()

	id, err := e.Repo.NextID(ctx, tx, "SOP")
	if err != nil {
		return domain.SOPRecord{}, err
	}
	now := e.nowRFC3339()
	s := domain.SOPRecord{
		ID:                id,
		Title:             opts.Title,
		Format:            opts.Format,
		Owner:             opts.Owner,
		LastEditedBy:      opts.ActorID,
		CurrentVersion:    "v0.1",
		Status:            domain.SopStatusDraft,
		CreatedAt:         now,
		Steps:             opts.Steps,
		FileName:          opts.FileName,
		BusinessProcessID: optionalString(opts.BusinessProcessID),
	}
	if err := e.Repo.InsertSop(ctx, tx, s); err != nil {
		return domain.SOPRecord{}, err
	}
	v := domain.SOPVersion{
		ID:        uuid.New().String(),
		SopID:     s.ID,
		Version:   s.CurrentVersion,
		Status:    s.Status,
		CreatedAt: now,
		CreatedBy: opts.ActorID,
		Steps:     s.Steps,
		FileName:  s.FileName,
	}
	if err := e.Repo.InsertSopVersion(ctx, tx, v); err != nil {
		return domain.SOPRecord{}, err
	}
	if err := e.Events.Append(ctx, tx, "sop.created", "sop", s.ID, opts.ActorID, events.EventPayload{"title": s.Title, "version": s.CurrentVersion}); err != nil {
		return domain.SOPRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.SOPRecord{}, err
	}
	return s, nil
}

// SopUpdateOptions encapsulates allowed SOP updates. Content fields are
// rejected on an effective SOP unless Force is set.
type SopUpdateOptions struct {
	ID                string
	Title             *string
	Format            *string
	Owner             *string
	FileName          *string
	BusinessProcessID *string
	ClearProcess      bool
	ActorID           string
	Force             bool
}

func (e Engine) UpdateSop(ctx context.Context, opts SopUpdateOptions) (domain.SOPRecord, error) {
	s, err := e.Repo.GetSop(ctx, opts.ID)
	if err != nil {
		return s, err
	}
	contentEdit := opts.Title != nil || opts.Format != nil || opts.Owner != nil || opts.FileName != nil
	if contentEdit && s.Status == domain.SopStatusEffective && !opts.Force {
		return s, ErrSopLocked
	}
	if opts.Title != nil {
		if *opts.Title == "" {
			return s, errors.New("title is required")
		}
		s.Title = *opts.Title
	}
	if opts.Format != nil {
		if *opts.Format != "block" && *opts.Format != "file" {
			return s, fmt.Errorf("invalid sop format %s", *opts.Format)
		}
		s.Format = *opts.Format
	}
	if opts.Owner != nil {
		if *opts.Owner == "" {
			return s, errors.New("owner is required")
		}
		s.Owner = *opts.Owner
	}
	if opts.FileName != nil {
		s.FileName = *opts.FileName
	}
	if opts.ClearProcess {
		s.BusinessProcessID = nil
	} else if opts.BusinessProcessID != nil {
		if _, err := e.Repo.GetProcess(ctx, *opts.BusinessProcessID); err != nil {
			return s, fmt.Errorf("business process %s: %w", *opts.BusinessProcessID, err)
		}
		s.BusinessProcessID = opts.BusinessProcessID
	}
	s.LastEditedBy = opts.ActorID
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateSop(ctx, tx, s); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, "sop.updated", "sop", s.ID, opts.ActorID, events.EventPayload{"title": s.Title}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

func (e Engine) DeleteSop(ctx context.Context, id, actorID string) error {
	s, err := e.Repo.GetSop(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteSop(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "sop.deleted", "sop", id, actorID, events.EventPayload{"title": s.Title}); err != nil {
		return err
	}
	return tx.Commit()
}

// TransitionStatus moves a SOP along its lifecycle. Reaching approved or
// effective stamps approved_by; reaching effective stamps effective_date.
func (e Engine) TransitionStatus(ctx context.Context, id, newStatus, actorID string, force bool) (domain.SOPRecord, error) {
	if err := validateSopStatus(newStatus); err != nil {
		return domain.SOPRecord{}, err
	}
	s, err := e.Repo.GetSop(ctx, id)
	if err != nil {
		return s, err
	}
	if err := ensureSopTransition(s.Status, newStatus, force); err != nil {
		return s, err
	}
	oldStatus := s.Status
	s.Status = newStatus
	switch newStatus {
	case domain.SopStatusApproved:
		s.ApprovedBy = actorID
	case domain.SopStatusEffective:
		s.ApprovedBy = actorID
		s.EffectiveDate = e.now().UTC().Format("2006-01-02")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateSop(ctx, tx, s); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, "sop.status.changed", "sop", s.ID, actorID, events.EventPayload{
		"from_status": oldStatus,
		"to_status":   newStatus,
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

// CreateNewVersion cuts the next major version: v2.1 becomes v3.0. The
// pre-call steps are snapshotted, status drops back to draft and the
// approval is cleared while the SOP id and history stay put.
func (e Engine) CreateNewVersion(ctx context.Context, id, actorID string) (domain.SOPRecord, error) {
	s, err := e.Repo.GetSop(ctx, id)
	if err != nil {
		return s, err
	}
	next := fmt.Sprintf("v%d.0", parseMajorVersion(s.CurrentVersion)+1)
	now := e.nowRFC3339()
	v := domain.SOPVersion{
		ID:        uuid.New().String(),
		SopID:     s.ID,
		Version:   next,
		Status:    domain.SopStatusDraft,
		CreatedAt: now,
		CreatedBy: actorID,
		Steps:     s.Steps,
		FileName:  s.FileName,
	}
	prev := s.CurrentVersion
	s.CurrentVersion = next
	s.Status = domain.SopStatusDraft
	s.ApprovedBy = ""
	s.LastEditedBy = actorID
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertSopVersion(ctx, tx, v); err != nil {
		return s, err
	}
	if err := e.Repo.UpdateSop(ctx, tx, s); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, "sop.version.created", "sop", s.ID, actorID, events.EventPayload{
		"from_version": prev,
		"to_version":   next,
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

// parseMajorVersion extracts MAJOR from a vMAJOR.MINOR label. Unparseable
// labels count as major 0 so version cutting never fails on bad data.
func parseMajorVersion(version string) int {
	trimmed := strings.TrimPrefix(version, "v")
	head, _, _ := strings.Cut(trimmed, ".")
	major, err := strconv.Atoi(head)
	if err != nil || major < 0 {
		return 0
	}
	return major
}

func (e Engine) SopVersions(ctx context.Context, id string) ([]domain.SOPVersion, error) {
	if _, err := e.Repo.GetSop(ctx, id); err != nil {
		return nil, err
	}
	return e.Repo.ListSopVersions(ctx, id)
}

// --- steps ---

// StepOptions carries the editable fields of one SOP step.
type StepOptions struct {
	Instruction         *string
	RequirePhoto        *bool
	RequireEvidenceFile *bool
	RequireMeasurement  *bool
	Inputs              []domain.TaskIO
	Outputs             []domain.TaskIO
}

func (e Engine) AddStep(ctx context.Context, sopID string, opts StepOptions, actorID string, force bool) (domain.SOPRecord, error) {
	s, err := e.Repo.GetSop(ctx, sopID)
	if err != nil {
		return s, err
	}
	if s.Status == domain.SopStatusEffective && !force {
		return s, ErrSopLocked
	}
	if opts.Instruction == nil || *opts.Instruction == "" {
		return s, errors.New("instruction is required")
	}
	step := domain.SOPStep{
		ID:          uuid.New().String(),
		Instruction: *opts.Instruction,
		Inputs:      opts.Inputs,
		Outputs:     opts.Outputs,
	}
	if opts.RequirePhoto != nil {
		step.RequirePhoto = *opts.RequirePhoto
	}
	if opts.RequireEvidenceFile != nil {
		step.RequireEvidenceFile = *opts.RequireEvidenceFile
	}
	if opts.RequireMeasurement != nil {
		step.RequireMeasurement = *opts.RequireMeasurement
	}
	s.Steps = append(s.Steps, step)
	return e.saveSteps(ctx, s, actorID, "sop.step.added", step.ID)
}

func (e Engine) UpdateStep(ctx context.Context, sopID, stepID string, opts StepOptions, actorID string, force bool) (domain.SOPRecord, error) {
	s, err := e.Repo.GetSop(ctx, sopID)
	if err != nil {
		return s, err
	}
	if s.Status == domain.SopStatusEffective && !force {
		return s, ErrSopLocked
	}
	idx := stepIndex(s.Steps, stepID)
	if idx < 0 {
		return s, fmt.Errorf("step %s: %w", stepID, repo.ErrNotFound)
	}
	step := &s.Steps[idx]
	if opts.Instruction != nil {
		if *opts.Instruction == "" {
			return s, errors.New("instruction is required")
		}
		step.Instruction = *opts.Instruction
	}
	if opts.RequirePhoto != nil {
		step.RequirePhoto = *opts.RequirePhoto
	}
	if opts.RequireEvidenceFile != nil {
		step.RequireEvidenceFile = *opts.RequireEvidenceFile
	}
	if opts.RequireMeasurement != nil {
		step.RequireMeasurement = *opts.RequireMeasurement
	}
	if opts.Inputs != nil {
		step.Inputs = opts.Inputs
	}
	if opts.Outputs != nil {
		step.Outputs = opts.Outputs
	}
	return e.saveSteps(ctx, s, actorID, "sop.step.updated", stepID)
}

func (e Engine) RemoveStep(ctx context.Context, sopID, stepID, actorID string, force bool) (domain.SOPRecord, error) {
	s, err := e.Repo.GetSop(ctx, sopID)
	if err != nil {
		return s, err
	}
	if s.Status == domain.SopStatusEffective && !force {
		return s, ErrSopLocked
	}
	idx := stepIndex(s.Steps, stepID)
	if idx < 0 {
		return s, fmt.Errorf("step %s: %w", stepID, repo.ErrNotFound)
	}
	s.Steps = append(s.Steps[:idx], s.Steps[idx+1:]...)
	return e.saveSteps(ctx, s, actorID, "sop.step.removed", stepID)
}

// ReorderSteps rewrites step order to the given id sequence, which must be
// a permutation of the current step ids.
func (e Engine) ReorderSteps(ctx context.Context, sopID string, orderedIDs []string, actorID string, force bool) (domain.SOPRecord, error) {
	s, err := e.Repo.GetSop(ctx, sopID)
	if err != nil {
		return s, err
	}
	if s.Status == domain.SopStatusEffective && !force {
		return s, ErrSopLocked
	}
	if len(orderedIDs) != len(s.Steps) {
		return s, fmt.Errorf("reorder needs all %d step ids", len(s.Steps))
	}
	byID := make(map[string]domain.SOPStep, len(s.Steps))
	for _, step := range s.Steps {
		byID[step.ID] = step
	}
	reordered := make([]domain.SOPStep, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		step, ok := byID[id]
		if !ok {
			return s, fmt.Errorf("step %s: %w", id, repo.ErrNotFound)
		}
		delete(byID, id)
		reordered = append(reordered, step)
	}
	s.Steps = reordered
	return e.saveSteps(ctx, s, actorID, "sop.steps.reordered", "")
}

func stepIndex(steps []domain.SOPStep, id string) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (e Engine) saveSteps(ctx context.Context, s domain.SOPRecord, actorID, evtType, stepID string) (domain.SOPRecord, error) {
	s.LastEditedBy = actorID
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateSop(ctx, tx, s); err != nil {
		return s, err
	}
	payload := events.EventPayload{"steps": len(s.Steps)}
	if stepID != "" {
		payload["step_id"] = stepID
	}
	if err := e.Events.Append(ctx, tx, evtType, "sop", s.ID, actorID, payload); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

// --- business processes ---

type ProcessCreateOptions struct {
	Name        string
	Description string
	ActorID     string
}

func (e Engine) CreateProcess(ctx context.Context, opts ProcessCreateOptions) (domain.BusinessProcess, error) {
	if opts.Name == "" {
		return domain.BusinessProcess{}, errors.New("name is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.BusinessProcess{}, err
	}
	defer tx.Rollback()
	id, err := e.Repo.NextID(ctx, tx, "BP")
	if err != nil {
		return domain.BusinessProcess{}, err
	}
	p := domain.BusinessProcess{
		ID:          id,
		Name:        opts.Name,
		Description: opts.Description,
		CreatedAt:   e.nowRFC3339(),
	}
	if err := e.Repo.InsertProcess(ctx, tx, p); err != nil {
		return domain.BusinessProcess{}, err
	}
	if err := e.Events.Append(ctx, tx, "process.created", "process", p.ID, opts.ActorID, events.EventPayload{"name": p.Name}); err != nil {
		return domain.BusinessProcess{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.BusinessProcess{}, err
	}
	return p, nil
}

type ProcessUpdateOptions struct {
	ID          string
	Name        *string
	Description *string
	ActorID     string
}

func (e Engine) UpdateProcess(ctx context.Context, opts ProcessUpdateOptions) (domain.BusinessProcess, error) {
	p, err := e.Repo.GetProcess(ctx, opts.ID)
	if err != nil {
		return p, err
	}
	if opts.Name != nil {
		if *opts.Name == "" {
			return p, errors.New("name is required")
		}
		p.Name = *opts.Name
	}
	if opts.Description != nil {
		p.Description = *opts.Description
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateProcess(ctx, tx, p); err != nil {
		return p, err
	}
	if err := e.Events.Append(ctx, tx, "process.updated", "process", p.ID, opts.ActorID, events.EventPayload{"name": p.Name}); err != nil {
		return p, err
	}
	if err := tx.Commit(); err != nil {
		return p, err
	}
	return p, nil
}

// DeleteProcess removes the grouping tag and clears it from its SOPs; the
// SOPs themselves survive.
func (e Engine) DeleteProcess(ctx context.Context, id, actorID string) error {
	p, err := e.Repo.GetProcess(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteProcess(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "process.deleted", "process", id, actorID, events.EventPayload{"name": p.Name}); err != nil {
		return err
	}
	return tx.Commit()
}
