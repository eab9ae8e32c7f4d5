package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
)

func registerSops(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-sop",
		Method:        http.MethodPost,
		Path:          "/sops",
		Summary:       "Create SOP",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		Body CreateSopRequest `json:"body"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.CreateSop(ctx, engine.SopCreateOptions{
			Title:             input.Body.Title,
			Format:            input.Body.Format,
			Owner:             input.Body.Owner,
			Steps:             fromStepRequests(input.Body.Steps),
			FileName:          input.Body.FileName,
			BusinessProcessID: input.Body.BusinessProcessID,
			ActorID:           input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sops",
		Method:      http.MethodGet,
		Path:        "/sops",
		Summary:     "List SOPs",
	}, func(ctx context.Context, input *struct {
		BusinessProcessID string `query:"business_process_id"`
		Status            string `query:"status" enum:",draft,in_review,approved,effective"`
	}) (*struct {
		Body []domain.SOPRecord `json:"body"`
	}, error) {
		sops, err := e.Repo.ListSops(ctx, input.BusinessProcessID, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.SOPRecord `json:"body"`
		}{Body: sops}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-sop",
		Method:      http.MethodGet,
		Path:        "/sops/{sop_id}",
		Summary:     "Get SOP with its version history",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SopID string `path:"sop_id"`
	}) (*struct {
		Body SopResponse `json:"body"`
	}, error) {
		s, err := e.Repo.GetSop(ctx, input.SopID)
		if err != nil {
			return nil, handleError(err)
		}
		versions, err := e.Repo.ListSopVersions(ctx, input.SopID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SopResponse `json:"body"`
		}{Body: SopResponse{SOPRecord: s, Versions: versions}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-sop",
		Method:      http.MethodPatch,
		Path:        "/sops/{sop_id}",
		Summary:     "Update SOP metadata and content fields",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		actorHeader
		forceQuery
		SopID string           `path:"sop_id"`
		Body  UpdateSopRequest `json:"body"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.UpdateSop(ctx, engine.SopUpdateOptions{
			ID:                input.SopID,
			Title:             input.Body.Title,
			Format:            input.Body.Format,
			Owner:             input.Body.Owner,
			FileName:          input.Body.FileName,
			BusinessProcessID: input.Body.BusinessProcessID,
			ClearProcess:      input.Body.ClearProcess,
			ActorID:           input.actor(),
			Force:             input.Force,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-sop",
		Method:        http.MethodDelete,
		Path:          "/sops/{sop_id}",
		Summary:       "Delete SOP and its versions",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		SopID string `path:"sop_id"`
	}) (*struct{}, error) {
		if err := e.DeleteSop(ctx, input.SopID, input.actor()); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-sop",
		Method:      http.MethodPost,
		Path:        "/sops/{sop_id}/transition",
		Summary:     "Move SOP to the next lifecycle status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		actorHeader
		forceQuery
		SopID string               `path:"sop_id"`
		Body  TransitionSopRequest `json:"body"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.TransitionStatus(ctx, input.SopID, input.Body.Status, input.actor(), input.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-sop-version",
		Method:        http.MethodPost,
		Path:          "/sops/{sop_id}/versions",
		Summary:       "Cut the next major version",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		SopID string `path:"sop_id"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.CreateNewVersion(ctx, input.SopID, input.actor())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sop-versions",
		Method:      http.MethodGet,
		Path:        "/sops/{sop_id}/versions",
		Summary:     "List version snapshots",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SopID string `path:"sop_id"`
	}) (*struct {
		Body []domain.SOPVersion `json:"body"`
	}, error) {
		versions, err := e.SopVersions(ctx, input.SopID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.SOPVersion `json:"body"`
		}{Body: versions}, nil
	})

	registerSopSteps(api, e)

	huma.Register(api, huma.Operation{
		OperationID: "analyze-sop",
		Method:      http.MethodPost,
		Path:        "/sops/{sop_id}/analyze",
		Summary:     "Analyze a SOP document with the external service",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusPaymentRequired,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *struct {
		actorHeader
		forceQuery
		SopID string            `path:"sop_id"`
		Body  AnalyzeSopRequest `json:"body"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.AnalyzeSop(ctx, engine.AnalyzeOptions{
			SopID:        input.SopID,
			FileName:     input.Body.FileName,
			FileContent:  input.Body.FileContent,
			ExtractSteps: input.Body.ExtractSteps,
			ActorID:      input.actor(),
			Force:        input.Force,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})
}

func registerSopSteps(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-sop-step",
		Method:        http.MethodPost,
		Path:          "/sops/{sop_id}/steps",
		Summary:       "Append a step",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		actorHeader
		forceQuery
		SopID string      `path:"sop_id"`
		Body  StepRequest `json:"body"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.AddStep(ctx, input.SopID, engine.StepOptions{
			Instruction:         &input.Body.Instruction,
			RequirePhoto:        &input.Body.RequirePhoto,
			RequireEvidenceFile: &input.Body.RequireEvidenceFile,
			RequireMeasurement:  &input.Body.RequireMeasurement,
			Inputs:              fromIORequests(input.Body.Inputs),
			Outputs:             fromIORequests(input.Body.Outputs),
		}, input.actor(), input.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-sop-step",
		Method:      http.MethodPatch,
		Path:        "/sops/{sop_id}/steps/{step_id}",
		Summary:     "Update a step",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		actorHeader
		forceQuery
		SopID  string            `path:"sop_id"`
		StepID string            `path:"step_id"`
		Body   UpdateStepRequest `json:"body"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.UpdateStep(ctx, input.SopID, input.StepID, engine.StepOptions{
			Instruction:         input.Body.Instruction,
			RequirePhoto:        input.Body.RequirePhoto,
			RequireEvidenceFile: input.Body.RequireEvidenceFile,
			RequireMeasurement:  input.Body.RequireMeasurement,
			Inputs:              fromIORequests(input.Body.Inputs),
			Outputs:             fromIORequests(input.Body.Outputs),
		}, input.actor(), input.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-sop-step",
		Method:      http.MethodDelete,
		Path:        "/sops/{sop_id}/steps/{step_id}",
		Summary:     "Remove a step",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		actorHeader
		forceQuery
		SopID  string `path:"sop_id"`
		StepID string `path:"step_id"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.RemoveStep(ctx, input.SopID, input.StepID, input.actor(), input.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-sop-steps",
		Method:      http.MethodPost,
		Path:        "/sops/{sop_id}/steps/reorder",
		Summary:     "Reorder steps",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		actorHeader
		forceQuery
		SopID string              `path:"sop_id"`
		Body  ReorderStepsRequest `json:"body"`
	}) (*struct {
		Body domain.SOPRecord `json:"body"`
	}, error) {
		s, err := e.ReorderSteps(ctx, input.SopID, input.Body.StepIDs, input.actor(), input.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SOPRecord `json:"body"`
		}{Body: s}, nil
	})
}

func registerProcesses(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-process",
		Method:        http.MethodPost,
		Path:          "/processes",
		Summary:       "Create business process",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		actorHeader
		Body CreateProcessRequest `json:"body"`
	}) (*struct {
		Body domain.BusinessProcess `json:"body"`
	}, error) {
		p, err := e.CreateProcess(ctx, engine.ProcessCreateOptions{
			Name:        input.Body.Name,
			Description: input.Body.Description,
			ActorID:     input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BusinessProcess `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-processes",
		Method:      http.MethodGet,
		Path:        "/processes",
		Summary:     "List business processes",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.BusinessProcess `json:"body"`
	}, error) {
		items, err := e.Repo.ListProcesses(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.BusinessProcess `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-process",
		Method:      http.MethodGet,
		Path:        "/processes/{process_id}",
		Summary:     "Get business process",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProcessID string `path:"process_id"`
	}) (*struct {
		Body domain.BusinessProcess `json:"body"`
	}, error) {
		p, err := e.Repo.GetProcess(ctx, input.ProcessID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BusinessProcess `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-process",
		Method:      http.MethodPatch,
		Path:        "/processes/{process_id}",
		Summary:     "Update business process",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		ProcessID string               `path:"process_id"`
		Body      UpdateProcessRequest `json:"body"`
	}) (*struct {
		Body domain.BusinessProcess `json:"body"`
	}, error) {
		p, err := e.UpdateProcess(ctx, engine.ProcessUpdateOptions{
			ID:          input.ProcessID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			ActorID:     input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BusinessProcess `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-process",
		Method:        http.MethodDelete,
		Path:          "/processes/{process_id}",
		Summary:       "Delete business process, keeping its SOPs",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		ProcessID string `path:"process_id"`
	}) (*struct{}, error) {
		if err := e.DeleteProcess(ctx, input.ProcessID, input.actor()); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
