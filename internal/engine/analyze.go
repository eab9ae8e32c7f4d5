package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"opsdeck/internal/analysis"
	"opsdeck/internal/domain"
	"opsdeck/internal/events"
)

// AnalyzeOptions are the inputs for an external SOP analysis call. The
// document content is supplied by the caller; file-format SOPs only store
// the file name, never the bytes.
type AnalyzeOptions struct {
	SopID        string
	FileName     string
	FileContent  string
	ExtractSteps bool
	ActorID      string
	Force        bool
}

// AnalyzeSop sends the document to the analysis service and, on success
// only, writes the result back: the analysis text always, extracted steps
// appended when requested. A failed call leaves the SOP untouched.
func (e Engine) AnalyzeSop(ctx context.Context, opts AnalyzeOptions) (domain.SOPRecord, error) {
	s, err := e.Repo.GetSop(ctx, opts.SopID)
	if err != nil {
		return s, err
	}
	if opts.ExtractSteps && s.Status == domain.SopStatusEffective && !opts.Force {
		return s, ErrSopLocked
	}
	if opts.FileContent == "" {
		return s, errors.New("file content is required")
	}
	if e.Analysis == nil {
		return s, analysis.ErrNotConfigured
	}
	fileName := opts.FileName
	if fileName == "" {
		fileName = s.FileName
	}
	result, err := e.Analysis.Analyze(ctx, analysis.Request{
		FileName:     fileName,
		FileContent:  opts.FileContent,
		ExtractSteps: opts.ExtractSteps,
	})
	if err != nil {
		return s, err
	}

	s.AIAnalysis = result.Analysis
	appended := 0
	if opts.ExtractSteps {
		for _, step := range result.Steps {
			if step.Instruction == "" {
				continue
			}
			s.Steps = append(s.Steps, domain.SOPStep{
				ID:                  uuid.New().String(),
				Instruction:         step.Instruction,
				RequirePhoto:        step.RequirePhoto,
				RequireEvidenceFile: step.RequireEvidenceFile,
			})
			appended++
		}
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
	if err := e.Events.Append(ctx, tx, "sop.analyzed", "sop", s.ID, opts.ActorID, events.EventPayload{
		"extract_steps":  opts.ExtractSteps,
		"steps_appended": appended,
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}
