package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"opsdeck/internal/domain"
	"opsdeck/internal/engine"
)

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Latest events, newest first",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" minimum:"1" maximum:"1000"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = 50
		}
		items, err := e.Repo.LatestEvents(ctx, limit, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}

func registerAudit(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "audit-dangling",
		Method:      http.MethodGet,
		Path:        "/audit/dangling",
		Summary:     "Report references to deleted entities",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.DanglingReference `json:"body"`
	}, error) {
		refs, err := e.DanglingReferences(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.DanglingReference `json:"body"`
		}{Body: refs}, nil
	})
}

func registerConfig(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-config",
		Method:      http.MethodGet,
		Path:        "/config",
		Summary:     "Current configuration",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ConfigBody `json:"body"`
	}, error) {
		cfg, err := e.Repo.GetConfig(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ConfigBody `json:"body"`
		}{Body: configBody(cfg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-config",
		Method:      http.MethodPut,
		Path:        "/config",
		Summary:     "Replace configuration",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ConfigBody `json:"body"`
	}) (*struct {
		Body ConfigBody `json:"body"`
	}, error) {
		cfg := configFromBody(input.Body)
		if err := e.Repo.UpsertConfig(ctx, cfg); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ConfigBody `json:"body"`
		}{Body: configBody(cfg)}, nil
	})
}
