package engine

import (
	"context"
	"time"

	"orderline/internal/domain"
	"orderline/internal/events"
	"orderline/internal/notify"
	"orderline/internal/repo"
)

// Offer negotiation. Invariant: at most one offer per executor within
// an order; re-submission replaces in place. Approval collapses the set
// into final_price/executor_id/assigned_deadline in the same write, so
// no persisted state ever has both offers and a final price.

// OfferOptions are an executor's proposed terms.
type OfferOptions struct {
	OrderID    int64
	ExecutorID string
	Price      int
	Deadline   domain.Deadline
	Comment    string
}

// SubmitOffer records (or replaces) the executor's offer. The order
// status does not change; the admin decides.
func (e *Engine) SubmitOffer(ctx context.Context, opts OfferOptions) (domain.Order, error) {
	if opts.Price <= 0 {
		return domain.Order{}, validationf("price must be a positive integer")
	}
	ex, err := e.Repo.GetExecutor(ctx, opts.ExecutorID)
	if err == repo.ErrNotFound {
		return domain.Order{}, ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	var updated domain.Order
	var offer domain.Offer
	err = e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, opts.OrderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if !o.Status.Negotiating() {
			return nil, invalidf(o.ID, o.Status, "offer")
		}
		if o.Status == domain.StatusAwaitingExecutor && o.InvitedExecutorID != opts.ExecutorID {
			return nil, ErrNotFound
		}
		offer = domain.Offer{
			ExecutorID:   ex.ID,
			ExecutorName: ex.Name,
			Price:        opts.Price,
			Deadline:     opts.Deadline,
			Comment:      opts.Comment,
			CreatedAt:    e.now().UTC().Format(time.RFC3339),
		}
		replaced := false
		for j := range o.Offers {
			if o.Offers[j].ExecutorID == ex.ID {
				o.Offers[j] = offer
				replaced = true
				break
			}
		}
		if !replaced {
			o.Offers = append(o.Offers, offer)
		}
		// an offer supersedes an earlier decline
		kept := o.Declined[:0]
		for _, id := range o.Declined {
			if id != ex.ID {
				kept = append(kept, id)
			}
		}
		o.Declined = kept
		updated = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "offer.submitted", updated.ID, ex.ID, events.EventPayload{"price": offer.Price, "deadline": offer.Deadline.String()})
	e.send(ctx, notify.Notification{
		Recipient: e.operator(),
		Template:  "offer.submitted.admin",
		Params: mergeParams(orderParams(updated), map[string]any{
			"executor_id":   ex.ID,
			"executor_name": ex.Name,
			"price":         offer.Price,
			"offer_dl":      offer.Deadline.String(),
			"offer_comment": offer.Comment,
		}),
		Actions: []notify.Action{
			{Label: "Утвердить", Command: "approve-offer"},
			{Label: "Отклонить", Command: "reject-offer"},
		},
	})
	return updated, nil
}

// DeclineInvitation is the executor passing on an order. A solo
// invitation reverts the order to under_review; a broadcast decline is
// recorded and only reverts once every registered executor has passed.
// Declining an order already reassigned away reports not-found and
// changes nothing.
func (e *Engine) DeclineInvitation(ctx context.Context, orderID int64, executorID string) (domain.Order, error) {
	executors, err := e.Repo.ListExecutors(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	var declined domain.Order
	allDeclined := false
	err = e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		switch o.Status {
		case domain.StatusAwaitingExecutor:
			if o.InvitedExecutorID != executorID {
				return nil, ErrNotFound
			}
			o.Status = domain.StatusUnderReview
			o.InvitedExecutorID = ""
			o.Offers = nil
		case domain.StatusAwaitingExecutorBroadcast:
			registered := false
			for _, ex := range executors {
				if ex.ID == executorID {
					registered = true
					break
				}
			}
			if !registered {
				return nil, ErrNotFound
			}
			kept := o.Offers[:0]
			for _, of := range o.Offers {
				if of.ExecutorID != executorID {
					kept = append(kept, of)
				}
			}
			o.Offers = kept
			already := false
			for _, id := range o.Declined {
				if id == executorID {
					already = true
					break
				}
			}
			if !already {
				o.Declined = append(o.Declined, executorID)
			}
			if len(o.Declined) >= len(executors) {
				o.Status = domain.StatusUnderReview
				o.Declined = nil
				o.Offers = nil
				allDeclined = true
			}
		default:
			return nil, ErrNotFound
		}
		declined = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "offer.declined", declined.ID, executorID, nil)
	template := "offer.declined.admin"
	if allDeclined {
		template = "offer.all_declined.admin"
	}
	e.send(ctx, notify.Notification{
		Recipient: e.operator(),
		Template:  template,
		Params:    mergeParams(orderParams(declined), map[string]any{"executor_id": executorID}),
	})
	return declined, nil
}

// ApproveOptions select one offer, optionally overriding the client
// price. The executor still earns their asked price; the difference is
// the operator's margin.
type ApproveOptions struct {
	OrderID       int64
	ExecutorID    string
	PriceOverride int
	ActorID       string
}

// ApproveOffer promotes one offer into the order and discards the rest.
func (e *Engine) ApproveOffer(ctx context.Context, opts ApproveOptions) (domain.Order, error) {
	if opts.ActorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	if opts.PriceOverride < 0 {
		return domain.Order{}, validationf("price must be a positive integer")
	}
	var approved domain.Order
	var losers []string
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, opts.OrderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if !o.Status.Negotiating() {
			return nil, invalidf(o.ID, o.Status, "approve-offer")
		}
		offer, ok := o.OfferByExecutor(opts.ExecutorID)
		if !ok {
			return nil, ErrNotFound
		}
		final := offer.Price
		if opts.PriceOverride > 0 {
			final = opts.PriceOverride
		}
		losers = nil
		for _, of := range o.Offers {
			if of.ExecutorID != offer.ExecutorID {
				losers = append(losers, of.ExecutorID)
			}
		}
		o.ExecutorID = offer.ExecutorID
		o.ExecutorPrice = offer.Price
		o.FinalPrice = final
		dl := offer.Deadline
		o.AssignedDeadline = &dl
		o.Offers = nil
		o.InvitedExecutorID = ""
		o.Declined = nil
		e.beginPayment(o)
		approved = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "offer.approved", approved.ID, opts.ActorID, events.EventPayload{
		"executor_id": approved.ExecutorID,
		"final_price": approved.FinalPrice,
	})
	ns := []notify.Notification{
		payRequestNotification(approved),
		{
			Recipient: approved.ExecutorID,
			Template:  "offer.approved.executor",
			Params:    orderParams(approved),
		},
	}
	for _, id := range losers {
		ns = append(ns, notify.Notification{
			Recipient: id,
			Template:  "offer.rejected.executor",
			Params:    orderParams(approved),
		})
	}
	e.send(ctx, ns...)
	return approved, nil
}

// RejectOffer removes one offer. When it was the last one the order
// falls back to under_review with no executor attached.
func (e *Engine) RejectOffer(ctx context.Context, orderID int64, executorID, actorID string) (domain.Order, error) {
	if actorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	var rejected domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if !o.Status.Negotiating() {
			return nil, invalidf(o.ID, o.Status, "reject-offer")
		}
		if _, ok := o.OfferByExecutor(executorID); !ok {
			return nil, ErrNotFound
		}
		kept := o.Offers[:0]
		for _, of := range o.Offers {
			if of.ExecutorID != executorID {
				kept = append(kept, of)
			}
		}
		o.Offers = kept
		if len(o.Offers) == 0 {
			o.Status = domain.StatusUnderReview
			o.InvitedExecutorID = ""
			o.Declined = nil
		}
		rejected = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "offer.rejected", rejected.ID, actorID, events.EventPayload{"executor_id": executorID})
	e.send(ctx, notify.Notification{
		Recipient: executorID,
		Template:  "offer.rejected.executor",
		Params:    orderParams(rejected),
	})
	return rejected, nil
}
