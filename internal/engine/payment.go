package engine

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"orderline/internal/domain"
	"orderline/internal/events"
	"orderline/internal/mirror"
	"orderline/internal/notify"
)

// Payment sub-flow. A nested machine gating awaiting_payment ->
// in_progress: none -> proof_requested -> proof_submitted ->
// accepted | rejected. A rejected payment moves back to
// proof_submitted when the client retries. The payment window is
// advisory: recorded, shown to the client, never enforced.

// beginPayment moves the order into awaiting_payment and opens the
// advisory window. Callers set executor/price fields first.
func (e *Engine) beginPayment(o *domain.Order) {
	o.Status = domain.StatusAwaitingPayment
	o.Payment = domain.Payment{State: domain.PaymentProofRequested}
	if m := e.Config.Payment.WindowMinutes; m > 0 {
		o.Payment.WindowEndsAt = e.now().UTC().Add(time.Duration(m) * time.Minute).Format(time.RFC3339)
	}
}

func payRequestNotification(o domain.Order) notify.Notification {
	params := mergeParams(orderParams(o), map[string]any{
		"final_price": o.FinalPrice,
	})
	if o.AssignedDeadline != nil {
		params["assigned_deadline"] = o.AssignedDeadline.String()
	}
	if o.Payment.WindowEndsAt != "" {
		params["window_ends_at"] = o.Payment.WindowEndsAt
	}
	return notify.Notification{
		Recipient: o.ClientID,
		Template:  "order.pay.client",
		Params:    params,
		Actions: []notify.Action{
			{Label: "Оплатил(а)", Command: "pay-proof"},
			{Label: "Отменить", Command: "pay-cancel"},
		},
	}
}

// SubmitPaymentProof attaches the client's proof and forwards it to the
// admin. Only document or photo blobs qualify; the status stays
// awaiting_payment until the admin rules.
func (e *Engine) SubmitPaymentProof(ctx context.Context, orderID int64, clientID string, proof domain.Blob) (domain.Order, error) {
	if proof.Kind != domain.BlobDocument && proof.Kind != domain.BlobPhoto {
		return domain.Order{}, validationf("payment proof must be a document or photo")
	}
	var updated domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 || orders[i].ClientID != clientID {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusAwaitingPayment {
			return nil, invalidf(o.ID, o.Status, "pay-proof")
		}
		p := proof
		o.Payment.State = domain.PaymentProofSubmitted
		o.Payment.ProofID = uuid.NewString()
		o.Payment.Proof = &p
		o.Payment.SubmittedAt = e.now().UTC().Format(time.RFC3339)
		updated = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "payment.proof_submitted", updated.ID, clientID, events.EventPayload{"proof_id": updated.Payment.ProofID})
	e.send(ctx, notify.Notification{
		Recipient: e.operator(),
		Template:  "payment.proof.admin",
		Params: mergeParams(orderParams(updated), map[string]any{
			"proof_id":    updated.Payment.ProofID,
			"proof_ref":   proof.Ref,
			"final_price": updated.FinalPrice,
		}),
		Actions: []notify.Action{
			{Label: "Оплата получена", Command: "pay-accept"},
			{Label: "Отклонить", Command: "pay-reject"},
		},
	})
	return updated, nil
}

// AcceptPayment confirms the money arrived. The order starts, the
// deadline resolves to a concrete date, both sides are told, and a
// bookkeeping row goes to the mirror, best-effort.
func (e *Engine) AcceptPayment(ctx context.Context, orderID int64, actorID string) (domain.Order, error) {
	if actorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	var started domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusAwaitingPayment || o.Payment.State != domain.PaymentProofSubmitted {
			return nil, invalidf(o.ID, o.Status, "pay-accept")
		}
		o.Status = domain.StatusInProgress
		o.Payment.State = domain.PaymentAccepted
		if o.AssignedDeadline != nil {
			o.DueDate = o.AssignedDeadline.Resolve(e.now(), o.Deadline)
		}
		started = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "payment.accepted", started.ID, actorID, events.EventPayload{"due_date": started.DueDate})
	e.appendMirrorRow(ctx, started)

	params := mergeParams(orderParams(started), map[string]any{"due_date": started.DueDate})
	ns := []notify.Notification{{
		Recipient: started.ClientID,
		Template:  "payment.accepted.client",
		Params:    params,
	}}
	if !started.ExecutorIsOperator(e.operator()) {
		ns = append(ns, notify.Notification{
			Recipient: started.ExecutorID,
			Template:  "payment.accepted.executor",
			Params:    params,
		})
	}
	e.send(ctx, ns...)
	return started, nil
}

// RejectPayment discards the proof and asks the client to try again.
// The payment rests in rejected until a new proof arrives.
func (e *Engine) RejectPayment(ctx context.Context, orderID int64, actorID string) (domain.Order, error) {
	if actorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	var updated domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusAwaitingPayment || o.Payment.State != domain.PaymentProofSubmitted {
			return nil, invalidf(o.ID, o.Status, "pay-reject")
		}
		o.Payment.State = domain.PaymentRejected
		o.Payment.Proof = nil
		o.Payment.ProofID = ""
		o.Payment.SubmittedAt = ""
		updated = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "payment.rejected", updated.ID, actorID, nil)
	e.send(ctx, notify.Notification{
		Recipient: updated.ClientID,
		Template:  "payment.rejected.client",
		Params:    orderParams(updated),
		Actions: []notify.Action{
			{Label: "Оплатил(а)", Command: "pay-proof"},
		},
	})
	return updated, nil
}

// CancelPayment is the client backing out of paying. Negotiation
// reopens: the approved terms return to the offer set so the admin can
// re-approve or reject them, and the admin hears about it with the
// client's phone for a follow-up call.
func (e *Engine) CancelPayment(ctx context.Context, orderID int64, clientID string) (domain.Order, error) {
	var updated domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 || orders[i].ClientID != clientID {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusAwaitingPayment {
			return nil, invalidf(o.ID, o.Status, "pay-cancel")
		}
		if o.ExecutorID != "" && o.ExecutorID != e.operator() && o.AssignedDeadline != nil {
			o.Offers = []domain.Offer{{
				ExecutorID: o.ExecutorID,
				Price:      o.ExecutorPrice,
				Deadline:   *o.AssignedDeadline,
				CreatedAt:  e.now().UTC().Format(time.RFC3339),
			}}
			o.Status = domain.StatusAwaitingExecutor
			o.InvitedExecutorID = o.ExecutorID
		} else {
			o.Status = domain.StatusUnderReview
		}
		o.ExecutorID = ""
		o.ExecutorPrice = 0
		o.FinalPrice = 0
		o.AssignedDeadline = nil
		o.Payment = domain.Payment{}
		updated = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "payment.cancelled", updated.ID, clientID, nil)
	params := orderParams(updated)
	if p, err := e.Repo.GetProfile(ctx, clientID); err == nil && p.Phone != "" {
		params["phone"] = p.Phone
	}
	e.send(ctx, notify.Notification{
		Recipient: e.operator(),
		Template:  "payment.cancelled.admin",
		Params:    params,
	})
	return updated, nil
}

func (e *Engine) appendMirrorRow(ctx context.Context, o domain.Order) {
	row := mirror.Row{
		OrderID:       o.ID,
		ClientName:    o.ClientName,
		ExecutorID:    o.ExecutorID,
		Subject:       o.Subject,
		CreatedAt:     o.CreatedAt,
		DueDate:       o.DueDate,
		ExecutorPrice: o.ExecutorPrice,
		FinalPrice:    o.FinalPrice,
		Profit:        o.FinalPrice - o.ExecutorPrice,
		Status:        string(o.Status),
	}
	if p, err := e.Repo.GetProfile(ctx, o.ClientID); err == nil {
		row.Phone = p.Phone
		row.Group = p.Group
		if row.ClientName == "" {
			row.ClientName = p.Name
		}
	}
	if err := e.Mirror.Append(ctx, row); err != nil {
		log.Printf("mirror: append of order %d failed: %v", o.ID, err)
		e.send(ctx, notify.Notification{
			Recipient: e.operator(),
			Template:  "warning.admin",
			Params:    map[string]any{"order_id": o.ID, "mirror_error": err.Error()},
		})
	}
}
