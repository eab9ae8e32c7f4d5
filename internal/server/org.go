package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
)

func registerTiers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tiers",
		Method:      http.MethodGet,
		Path:        "/org/tiers",
		Summary:     "List organization tiers",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.RoleTier `json:"body"`
	}, error) {
		tiers, err := e.Repo.ListTiers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.RoleTier `json:"body"`
		}{Body: tiers}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tier",
		Method:      http.MethodPatch,
		Path:        "/org/tiers/{tier_id}",
		Summary:     "Relabel an organization tier",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		TierID string            `path:"tier_id" enum:"strategic,managerial,operational"`
		Body   UpdateTierRequest `json:"body"`
	}) (*struct {
		Body domain.RoleTier `json:"body"`
	}, error) {
		t, err := e.UpdateTier(ctx, engine.TierUpdateOptions{
			ID:          input.TierID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			ActorID:     input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.RoleTier `json:"body"`
		}{Body: t}, nil
	})
}

func registerRoles(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-role",
		Method:        http.MethodPost,
		Path:          "/org/roles",
		Summary:       "Create role",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		Body CreateRoleRequest `json:"body"`
	}) (*struct {
		Body domain.OrgRole `json:"body"`
	}, error) {
		role, err := e.CreateRole(ctx, engine.RoleCreateOptions{
			Name:        input.Body.Name,
			Description: input.Body.Description,
			TierID:      input.Body.TierID,
			RaciType:    input.Body.RaciType,
			ActorID:     input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.OrgRole `json:"body"`
		}{Body: role}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-roles",
		Method:      http.MethodGet,
		Path:        "/org/roles",
		Summary:     "List roles, optionally by tier",
	}, func(ctx context.Context, input *struct {
		TierID string `query:"tier_id" enum:",strategic,managerial,operational"`
	}) (*struct {
		Body []domain.OrgRole `json:"body"`
	}, error) {
		roles, err := e.RolesByTier(ctx, input.TierID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.OrgRole `json:"body"`
		}{Body: roles}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "role-options",
		Method:      http.MethodGet,
		Path:        "/org/roles/options",
		Summary:     "Role picker options",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.RoleOption `json:"body"`
	}, error) {
		opts, err := e.RoleOptions(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.RoleOption `json:"body"`
		}{Body: opts}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-role",
		Method:      http.MethodGet,
		Path:        "/org/roles/{role_id}",
		Summary:     "Get role",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		RoleID string `path:"role_id"`
	}) (*struct {
		Body domain.OrgRole `json:"body"`
	}, error) {
		role, err := e.Repo.GetRole(ctx, input.RoleID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.OrgRole `json:"body"`
		}{Body: role}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-role",
		Method:      http.MethodPatch,
		Path:        "/org/roles/{role_id}",
		Summary:     "Update role",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		RoleID string            `path:"role_id"`
		Body   UpdateRoleRequest `json:"body"`
	}) (*struct {
		Body domain.OrgRole `json:"body"`
	}, error) {
		role, err := e.UpdateRole(ctx, engine.RoleUpdateOptions{
			ID:          input.RoleID,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			TierID:      input.Body.TierID,
			RaciType:    input.Body.RaciType,
			ActorID:     input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.OrgRole `json:"body"`
		}{Body: role}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-role",
		Method:        http.MethodDelete,
		Path:          "/org/roles/{role_id}",
		Summary:       "Delete role",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		RoleID string `path:"role_id"`
	}) (*struct{}, error) {
		if err := e.DeleteRole(ctx, input.RoleID, input.actor()); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerDepartments(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-department",
		Method:        http.MethodPost,
		Path:          "/org/departments",
		Summary:       "Create department",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		Body CreateDepartmentRequest `json:"body"`
	}) (*struct {
		Body domain.Department `json:"body"`
	}, error) {
		d, err := e.CreateDepartment(ctx, engine.DepartmentCreateOptions{
			Name:             input.Body.Name,
			Description:      input.Body.Description,
			HeadOfDepartment: input.Body.HeadOfDepartment,
			ParentID:         input.Body.ParentID,
			ActorID:          input.actor(),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Department `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-departments",
		Method:      http.MethodGet,
		Path:        "/org/departments",
		Summary:     "List departments, optionally by parent",
	}, func(ctx context.Context, input *struct {
		ParentID string `query:"parent_id"`
		Roots    bool   `query:"roots"`
	}) (*struct {
		Body []domain.Department `json:"body"`
	}, error) {
		var (
			departments []domain.Department
			err         error
		)
		switch {
		case input.ParentID != "":
			departments, err = e.Repo.ChildDepartments(ctx, input.ParentID)
		case input.Roots:
			departments, err = e.Repo.RootDepartments(ctx)
		default:
			departments, err = e.Repo.ListDepartments(ctx)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Department `json:"body"`
		}{Body: departments}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-department",
		Method:      http.MethodGet,
		Path:        "/org/departments/{department_id}",
		Summary:     "Get department",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DepartmentID string `path:"department_id"`
	}) (*struct {
		Body domain.Department `json:"body"`
	}, error) {
		d, err := e.Repo.GetDepartment(ctx, input.DepartmentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Department `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "department-breadcrumbs",
		Method:      http.MethodGet,
		Path:        "/org/departments/{department_id}/breadcrumbs",
		Summary:     "Ancestry chain from root to department",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DepartmentID string `path:"department_id"`
	}) (*struct {
		Body []domain.Department `json:"body"`
	}, error) {
		chain, err := e.DepartmentBreadcrumbs(ctx, input.DepartmentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Department `json:"body"`
		}{Body: chain}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-department",
		Method:      http.MethodPatch,
		Path:        "/org/departments/{department_id}",
		Summary:     "Update department",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		actorHeader
		DepartmentID string                  `path:"department_id"`
		Body         UpdateDepartmentRequest `json:"body"`
	}) (*struct {
		Body domain.Department `json:"body"`
	}, error) {
		opts := engine.DepartmentUpdateOptions{
			ID:               input.DepartmentID,
			Name:             input.Body.Name,
			Description:      input.Body.Description,
			HeadOfDepartment: input.Body.HeadOfDepartment,
			ActorID:          input.actor(),
		}
		if input.Body.ClearParent {
			opts.ParentProvided = true
		} else if input.Body.ParentID != nil {
			opts.SetParent = input.Body.ParentID
			opts.ParentProvided = true
		}
		d, err := e.UpdateDepartment(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Department `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-department",
		Method:        http.MethodDelete,
		Path:          "/org/departments/{department_id}",
		Summary:       "Delete department, promoting its children",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		actorHeader
		DepartmentID string `path:"department_id"`
	}) (*struct{}, error) {
		if err := e.DeleteDepartment(ctx, input.DepartmentID, input.actor()); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
