package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"orderline/internal/domain"
	"orderline/internal/engine"
	"orderline/internal/events"
)

func requireAdmin(ctx context.Context) (Principal, huma.StatusError) {
	p, authErr := actor(ctx)
	if authErr != nil {
		return Principal{}, authErr
	}
	if p.Role != domain.RoleAdmin {
		return Principal{}, newAPIError(http.StatusForbidden, "forbidden", "admin only", nil)
	}
	return p, nil
}

func registerExecutors(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-executors",
		Method:      http.MethodGet,
		Path:        "/executors",
		Summary:     "List registered executors",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Executor `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		executors, err := e.Repo.ListExecutors(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if executors == nil {
			executors = []domain.Executor{}
		}
		return &struct {
			Body []domain.Executor `json:"body"`
		}{Body: executors}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-executor",
		Method:        http.MethodPost,
		Path:          "/executors",
		Summary:       "Register an executor",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body ExecutorRequest `json:"body"`
	}) (*struct {
		Body domain.Executor `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		if input.Body.ID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id is required", nil)
		}
		ex := domain.Executor{ID: input.Body.ID, Name: input.Body.Name}
		if err := e.Repo.AddExecutor(ctx, ex); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Executor `json:"body"`
		}{Body: ex}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-executor",
		Method:      http.MethodDelete,
		Path:        "/executors/{id}",
		Summary:     "Remove an executor",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		if err := e.Repo.RemoveExecutor(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerProfiles(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profiles/{client_id}",
		Summary:     "Get client profile",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ClientID string `path:"client_id"`
	}) (*struct {
		Body domain.Profile `json:"body"`
	}, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if p.Role != domain.RoleAdmin && p.ActorID != input.ClientID {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "not your profile", nil)
		}
		prof, err := e.Repo.GetProfile(ctx, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Profile `json:"body"`
		}{Body: prof}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-profile",
		Method:      http.MethodPut,
		Path:        "/profiles/{client_id}",
		Summary:     "Save client profile",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		ClientID string         `path:"client_id"`
		Body     domain.Profile `json:"body"`
	}) (*struct {
		Body domain.Profile `json:"body"`
	}, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if p.Role != domain.RoleAdmin && p.ActorID != input.ClientID {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "not your profile", nil)
		}
		prof := input.Body
		prof.ClientID = input.ClientID
		if err := e.Repo.UpsertProfile(ctx, prof); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Profile `json:"body"`
		}{Body: prof}, nil
	})
}

func registerEvents(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Read the event log",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		After int64 `query:"after"`
		Limit int   `query:"limit" default:"100"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		rd := events.Reader{DB: e.Repo.DB}
		evts, err := rd.After(ctx, input.After, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if evts == nil {
			evts = []domain.Event{}
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: evts}, nil
	})
}
