package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"orderline/internal/domain"
	"orderline/internal/engine"
)

type orderBody struct {
	Body domain.Order `json:"body"`
}

func orderOut(o domain.Order) *orderBody { return &orderBody{Body: o} }

func actor(ctx context.Context) (Principal, huma.StatusError) {
	p, err := principalFromContext(ctx)
	if err != nil {
		return Principal{}, newAPIError(http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	}
	return p, nil
}

func parseDeadlineField(s string) (domain.Deadline, huma.StatusError) {
	dl, err := domain.ParseDeadline(s)
	if err != nil {
		return domain.Deadline{}, newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error(), nil)
	}
	return dl, nil
}

type orderPath struct {
	ID int64 `path:"id"`
}

func registerOrders(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-order",
		Method:        http.MethodPost,
		Path:          "/orders",
		Summary:       "Create order draft",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnauthorized, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CreateOrderRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.CreateDraft(ctx, engine.DraftOptions{
			ClientID:   p.ActorID,
			ClientName: input.Body.ClientName,
			Subject:    input.Body.Subject,
			WorkType:   input.Body.WorkType,
			Deadline:   input.Body.Deadline,
			Comment:    input.Body.Comment,
			Materials:  input.Body.Materials,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-orders",
		Method:      http.MethodGet,
		Path:        "/orders",
		Summary:     "List orders",
	}, func(ctx context.Context, input *struct {
		Status     string `query:"status"`
		ClientID   string `query:"client_id"`
		ExecutorID string `query:"executor_id"`
	}) (*struct {
		Body []domain.Order `json:"body"`
	}, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		f := engine.ListFilter{
			Status:     domain.Status(input.Status),
			ClientID:   input.ClientID,
			ExecutorID: input.ExecutorID,
		}
		// non-admins only ever see their own orders
		switch p.Role {
		case domain.RoleClient:
			f.ClientID = p.ActorID
		case domain.RoleExecutor:
			f.ExecutorID = p.ActorID
		}
		orders, err := e.ListOrders(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		return &struct {
			Body []domain.Order `json:"body"`
		}{Body: orders}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Method:      http.MethodGet,
		Path:        "/orders/{id}",
		Summary:     "Get order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *orderPath) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.GetOrder(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if p.Role == domain.RoleClient && o.ClientID != p.ActorID {
			return nil, handleError(engine.ErrNotFound)
		}
		if p.Role == domain.RoleExecutor && o.ExecutorID != p.ActorID && o.InvitedExecutorID != p.ActorID {
			return nil, handleError(engine.ErrNotFound)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-order",
		Method:      http.MethodPatch,
		Path:        "/orders/{id}",
		Summary:     "Update order draft",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64              `path:"id"`
		Body UpdateOrderRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.UpdateDraft(ctx, engine.DraftUpdateOptions{
			OrderID:   input.ID,
			ClientID:  p.ActorID,
			Subject:   input.Body.Subject,
			WorkType:  input.Body.WorkType,
			Deadline:  input.Body.Deadline,
			Comment:   input.Body.Comment,
			Guideline: input.Body.Guideline,
			Task:      input.Body.Task,
			Example:   input.Body.Example,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-order",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/confirm",
		Summary:     "Confirm order draft",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int64               `path:"id"`
		Body ConfirmOrderRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.Confirm(ctx, input.ID, p.ActorID, input.Body.Profile)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-order",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/cancel",
		Summary:     "Cancel order",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *orderPath) (*struct{}, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.Cancel(ctx, input.ID, p.ActorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-executor",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/assign",
		Summary:     "Invite one executor",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int64         `path:"id"`
		Body AssignRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.AssignExecutor(ctx, input.ID, input.Body.ExecutorID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "broadcast-order",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/broadcast",
		Summary:     "Offer order to all executors",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *orderPath) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.Broadcast(ctx, input.ID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "self-take-order",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/self-take",
		Summary:     "Admin takes the order as executor",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int64           `path:"id"`
		Body SelfTakeRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		dl, dlErr := parseDeadlineField(input.Body.Deadline)
		if dlErr != nil {
			return nil, dlErr
		}
		o, err := e.SelfTake(ctx, engine.SelfTakeOptions{
			OrderID:  input.ID,
			Price:    input.Body.Price,
			Deadline: dl,
			Comment:  input.Body.Comment,
			ActorID:  p.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-offer",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/offers",
		Summary:     "Executor submits an offer",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int64        `path:"id"`
		Body OfferRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		dl, dlErr := parseDeadlineField(input.Body.Deadline)
		if dlErr != nil {
			return nil, dlErr
		}
		o, err := e.SubmitOffer(ctx, engine.OfferOptions{
			OrderID:    input.ID,
			ExecutorID: p.ActorID,
			Price:      input.Body.Price,
			Deadline:   dl,
			Comment:    input.Body.Comment,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "decline-order",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/decline",
		Summary:     "Executor declines an invitation",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *orderPath) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.DeclineInvitation(ctx, input.ID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-offer",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/offers/{executor_id}/approve",
		Summary:     "Approve one offer",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID         int64               `path:"id"`
		ExecutorID string              `path:"executor_id"`
		Body       ApproveOfferRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.ApproveOffer(ctx, engine.ApproveOptions{
			OrderID:       input.ID,
			ExecutorID:    input.ExecutorID,
			PriceOverride: input.Body.Price,
			ActorID:       p.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-offer",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/offers/{executor_id}/reject",
		Summary:     "Reject one offer",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID         int64  `path:"id"`
		ExecutorID string `path:"executor_id"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.RejectOffer(ctx, input.ID, input.ExecutorID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-payment-proof",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/payment/proof",
		Summary:     "Client submits proof of payment",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int64        `path:"id"`
		Body ProofRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.SubmitPaymentProof(ctx, input.ID, p.ActorID, input.Body.Proof)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-payment",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/payment/accept",
		Summary:     "Admin accepts payment",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *orderPath) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.AcceptPayment(ctx, input.ID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-payment",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/payment/reject",
		Summary:     "Admin rejects payment proof",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *orderPath) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.RejectPayment(ctx, input.ID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-payment",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/payment/cancel",
		Summary:     "Client backs out of paying",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *orderPath) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.CancelPayment(ctx, input.ID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-work",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/work",
		Summary:     "Executor delivers the work",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64       `path:"id"`
		Body WorkRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.SubmitWork(ctx, input.ID, p.ActorID, input.Body.File)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-work",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/work/approve",
		Summary:     "Admin approves delivered work",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *orderPath) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.ApproveWork(ctx, input.ID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-work",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/work/reject",
		Summary:     "Admin sends work back for revision",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int64          `path:"id"`
		Body CommentRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.RejectWork(ctx, input.ID, input.Body.Comment, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-work",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/work/accept",
		Summary:     "Client accepts the work",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *orderPath) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.AcceptWork(ctx, input.ID, p.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-revision",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/work/revision",
		Summary:     "Client requests a revision",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int64          `path:"id"`
		Body CommentRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.RequestRevision(ctx, input.ID, p.ActorID, input.Body.Comment)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refuse-order",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/refuse",
		Summary:     "Executor refuses an in-progress order",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   int64         `path:"id"`
		Body RefuseRequest `json:"body"`
	}) (*orderBody, error) {
		p, authErr := actor(ctx)
		if authErr != nil {
			return nil, authErr
		}
		o, err := e.RefuseOrder(ctx, input.ID, p.ActorID, input.Body.Reason, input.Body.Comment)
		if err != nil {
			return nil, handleError(err)
		}
		return orderOut(o), nil
	})
}
