package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
)

func registerModules(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-module",
		Method:        http.MethodPost,
		Path:          "/modules",
		Summary:       "Create work module",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		Body CreateModuleRequest `json:"body"`
	}) (*struct {
		Body domain.WorkModule `json:"body"`
	}, error) {
		m, err := e.CreateModule(ctx, engine.ModuleCreateOptions{
			DepartmentID: input.Body.DepartmentID,
			Name:         input.Body.Name,
			Description:  input.Body.Description,
			Owner:        input.Body.Owner,
			RiskLevel:    input.Body.RiskLevel,
			ActorID:      input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkModule `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-modules",
		Method:      http.MethodGet,
		Path:        "/modules",
		Summary:     "List modules with KPI and RAG",
	}, func(ctx context.Context, input *struct {
		DepartmentID string `query:"department_id"`
	}) (*struct {
		Body []engine.ModuleStats `json:"body"`
	}, error) {
		items, err := e.ListModulesWithStats(ctx, input.DepartmentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []engine.ModuleStats `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-module",
		Method:      http.MethodGet,
		Path:        "/modules/{module_id}",
		Summary:     "Get module with KPI and RAG",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ModuleID string `path:"module_id"`
	}) (*struct {
		Body engine.ModuleStats `json:"body"`
	}, error) {
		stats, err := e.ModuleWithStats(ctx, input.ModuleID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ModuleStats `json:"body"`
		}{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-module",
		Method:      http.MethodPatch,
		Path:        "/modules/{module_id}",
		Summary:     "Update module",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		ModuleID string              `path:"module_id"`
		Body     UpdateModuleRequest `json:"body"`
	}) (*struct {
		Body domain.WorkModule `json:"body"`
	}, error) {
		m, err := e.UpdateModule(ctx, engine.ModuleUpdateOptions{
			ID:           input.ModuleID,
			DepartmentID: input.Body.DepartmentID,
			Name:         input.Body.Name,
			Description:  input.Body.Description,
			Owner:        input.Body.Owner,
			RiskLevel:    input.Body.RiskLevel,
			ActorID:      input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkModule `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-module",
		Method:        http.MethodDelete,
		Path:          "/modules/{module_id}",
		Summary:       "Delete module and its tasks",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		ModuleID string `path:"module_id"`
	}) (*struct{}, error) {
		if err := e.DeleteModule(ctx, input.ModuleID, input.actor()); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create work task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			ModuleID:     input.Body.ModuleID,
			Operation:    input.Body.Operation,
			Name:         input.Body.Name,
			Description:  input.Body.Description,
			Owner:        input.Body.Owner,
			RiskLevel:    input.Body.RiskLevel,
			Status:       input.Body.Status,
			Inputs:       fromIORequests(input.Body.Inputs),
			Outputs:      fromIORequests(input.Body.Outputs),
			LinkedSopIDs: input.Body.LinkedSopIDs,
			SuggestIO:    input.Body.SuggestIO,
			ActorID:      input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks, optionally by module",
	}, func(ctx context.Context, input *struct {
		ModuleID string `query:"module_id"`
	}) (*struct {
		Body []TaskResponse `json:"body"`
	}, error) {
		tasks, err := e.Repo.ListTasks(ctx, input.ModuleID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []TaskResponse `json:"body"`
		}{Body: taskResponses(tasks)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		t, err := e.Repo.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		opts := engine.TaskUpdateOptions{
			ID:          input.TaskID,
			Operation:   input.Body.Operation,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Owner:       input.Body.Owner,
			RiskLevel:   input.Body.RiskLevel,
			Status:      input.Body.Status,
			ActorID:     input.actor(),
		}
		if input.Body.Inputs != nil {
			opts.Inputs = fromIORequests(*input.Body.Inputs)
			opts.InputsProvided = true
		}
		if input.Body.Outputs != nil {
			opts.Outputs = fromIORequests(*input.Body.Outputs)
			opts.OutputsProvided = true
		}
		if input.Body.LinkedSopIDs != nil {
			opts.LinkedSopIDs = *input.Body.LinkedSopIDs
			opts.LinkedSopIDProvided = true
		}
		t, err := e.UpdateTask(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: taskResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{task_id}",
		Summary:       "Delete task",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		if err := e.DeleteTask(ctx, input.TaskID, input.actor()); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suggest-task-io",
		Method:      http.MethodGet,
		Path:        "/tasks/suggest-io",
		Summary:     "Suggested inputs and outputs for a task name",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Name string `query:"name" required:"true"`
	}) (*struct {
		Body struct {
			Inputs  []domain.TaskIO `json:"inputs"`
			Outputs []domain.TaskIO `json:"outputs"`
		} `json:"body"`
	}, error) {
		if input.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		inputs, outputs := e.SuggestTaskIO(input.Name)
		out := &struct {
			Body struct {
				Inputs  []domain.TaskIO `json:"inputs"`
				Outputs []domain.TaskIO `json:"outputs"`
			} `json:"body"`
		}{}
		out.Body.Inputs = inputs
		out.Body.Outputs = outputs
		return out, nil
	})
}
