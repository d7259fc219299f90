// Package engine is the sole authority on order lifecycle transitions:
// it decides whether an action is legal for the acting role and the
// order's current status, applies the field mutations, persists the
// whole collection, and fans out notifications. Every mutation is
// load-all, mutate-one, save-all; a notification failure is surfaced
// to the admin as a warning and never rolls back a persisted change.
package engine

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"orderline/internal/config"
	"orderline/internal/domain"
	"orderline/internal/events"
	"orderline/internal/mirror"
	"orderline/internal/notify"
	"orderline/internal/repo"
	"orderline/internal/store"
)

type Engine struct {
	Store  store.Store
	Repo   repo.Repo
	Events events.Writer
	Notify notify.Dispatcher
	Mirror mirror.Mirror
	Config *config.Config
	Now    func() time.Time

	// mu serializes mutations, preserving the single-writer model the
	// whole-collection store contract assumes. Cross-process writers
	// still race (last-write-wins), which is a documented weakness.
	mu sync.Mutex
}

func New(db *sql.DB, st store.Store, cfg *config.Config) *Engine {
	return &Engine{
		Store:  st,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Notify: notify.LogSink{},
		Mirror: mirror.Noop{},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) operator() string { return e.Config.Operator.ID }

// mutate runs one read-modify-write cycle over the whole collection.
func (e *Engine) mutate(ctx context.Context, fn func(orders []domain.Order) ([]domain.Order, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	orders, err := e.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	next, err := fn(orders)
	if err != nil {
		return err
	}
	return e.Store.SaveAll(ctx, next)
}

func findOrder(orders []domain.Order, id int64) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}

// nextOrderID takes the max of the local store and the external mirror,
// plus one, so ids never collide with rows already on the sheet. The
// mirror read is best-effort.
func (e *Engine) nextOrderID(ctx context.Context, orders []domain.Order) int64 {
	var max int64
	for _, o := range orders {
		if o.ID > max {
			max = o.ID
		}
	}
	if mirrorMax, err := e.Mirror.MaxOrderID(ctx); err != nil {
		log.Printf("mirror: max order id unavailable, using local max: %v", err)
	} else if mirrorMax > max {
		max = mirrorMax
	}
	return max + 1
}

// send delivers notifications best-effort. Failures are logged and the
// admin gets one warning naming the unreachable recipients.
func (e *Engine) send(ctx context.Context, ns ...notify.Notification) {
	var failed []string
	for _, n := range ns {
		if err := e.Notify.Send(ctx, n); err != nil {
			log.Printf("notify %s (%s) failed: %v", n.Recipient, n.Template, err)
			failed = append(failed, n.Recipient)
		}
	}
	if len(failed) == 0 {
		return
	}
	warn := notify.Notification{
		Recipient: e.operator(),
		Template:  "warning.admin",
		Params:    map[string]any{"unreachable": failed},
	}
	if err := e.Notify.Send(ctx, warn); err != nil {
		log.Printf("notify admin warning failed: %v", err)
	}
}

// record appends to the event log. The state change is already
// persisted by the time this runs, so failures only log.
func (e *Engine) record(ctx context.Context, evtType string, orderID int64, actorID string, payload events.EventPayload) {
	if err := e.Events.Append(ctx, evtType, orderID, actorID, payload); err != nil {
		log.Printf("event %s for order %d not recorded: %v", evtType, orderID, err)
	}
}

// DraftOptions carries the client's draft fields. Everything except the
// client id may be filled in later via UpdateDraft.
type DraftOptions struct {
	ClientID   string
	ClientName string
	Subject    string
	WorkType   string
	Deadline   string
	Comment    string
	Materials  domain.Materials
}

// CreateDraft opens a new order in editing. The id is assigned
// immediately; creation_date waits for confirmation.
func (e *Engine) CreateDraft(ctx context.Context, opts DraftOptions) (domain.Order, error) {
	if opts.ClientID == "" {
		return domain.Order{}, validationf("client id is required")
	}
	var created domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		created = domain.Order{
			ID:         e.nextOrderID(ctx, orders),
			Status:     domain.StatusEditing,
			ClientID:   opts.ClientID,
			ClientName: opts.ClientName,
			Subject:    opts.Subject,
			WorkType:   opts.WorkType,
			Deadline:   opts.Deadline,
			Comment:    opts.Comment,
			Materials:  opts.Materials,
		}
		return append(orders, created), nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "order.created", created.ID, opts.ClientID, nil)
	return created, nil
}

// DraftUpdateOptions patches a draft; nil pointers leave fields alone.
type DraftUpdateOptions struct {
	OrderID   int64
	ClientID  string
	Subject   *string
	WorkType  *string
	Deadline  *string
	Comment   *string
	Guideline *domain.Blob
	Task      *domain.Blob
	Example   *domain.Blob
}

func (e *Engine) UpdateDraft(ctx context.Context, opts DraftUpdateOptions) (domain.Order, error) {
	var updated domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, opts.OrderID)
		if i < 0 || orders[i].ClientID != opts.ClientID {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusEditing {
			return nil, invalidf(o.ID, o.Status, "edit")
		}
		if opts.Subject != nil {
			o.Subject = *opts.Subject
		}
		if opts.WorkType != nil {
			o.WorkType = *opts.WorkType
		}
		if opts.Deadline != nil {
			o.Deadline = *opts.Deadline
		}
		if opts.Comment != nil {
			o.Comment = *opts.Comment
		}
		if opts.Guideline != nil {
			o.Materials.Guideline = opts.Guideline
		}
		if opts.Task != nil {
			o.Materials.Task = opts.Task
		}
		if opts.Example != nil {
			o.Materials.Example = opts.Example
		}
		updated = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// Confirm moves a draft to under_review, stamps the creation date, and
// tells the admin and every registered executor about the new order.
// Stale editing drafts of the same client are swept away so only the
// confirmed order survives.
func (e *Engine) Confirm(ctx context.Context, orderID int64, clientID string, profile *domain.Profile) (domain.Order, error) {
	var confirmed domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 || orders[i].ClientID != clientID {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusEditing {
			return nil, invalidf(o.ID, o.Status, "confirm")
		}
		if o.Subject == "" {
			return nil, validationf("subject is required")
		}
		if o.WorkType == "" {
			return nil, validationf("work type is required")
		}
		o.Status = domain.StatusUnderReview
		o.CreatedAt = e.now().UTC().Format(time.RFC3339)
		confirmed = *o

		kept := orders[:0]
		for _, other := range orders {
			if other.ID != o.ID && other.ClientID == clientID && other.Status == domain.StatusEditing {
				continue
			}
			kept = append(kept, other)
		}
		return kept, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	if profile != nil {
		profile.ClientID = clientID
		if err := e.Repo.UpsertProfile(ctx, *profile); err != nil {
			log.Printf("profile for %s not saved: %v", clientID, err)
		}
	}
	e.record(ctx, "order.confirmed", confirmed.ID, clientID, events.EventPayload{"subject": confirmed.Subject})

	ns := []notify.Notification{{
		Recipient: e.operator(),
		Template:  "order.new.admin",
		Params:    orderParams(confirmed),
		Actions: []notify.Action{
			{Label: "Назначить", Command: "assign"},
			{Label: "Всем", Command: "broadcast"},
			{Label: "Взять себе", Command: "self-take"},
		},
	}}
	for _, ex := range e.listExecutors(ctx) {
		ns = append(ns, notify.Notification{
			Recipient: ex.ID,
			Template:  "order.new.executor",
			Params:    orderParams(confirmed),
		})
	}
	e.send(ctx, ns...)
	return confirmed, nil
}

// Cancel removes the order from the store entirely. Clients may cancel
// their own orders up to in_progress; the admin may cancel anything
// non-terminal. A cancelled in_progress order is also dropped from the
// mirror, best-effort.
func (e *Engine) Cancel(ctx context.Context, orderID int64, actorID string) error {
	var cancelled domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := orders[i]
		if actorID != e.operator() && o.ClientID != actorID {
			return nil, ErrNotFound
		}
		switch o.Status {
		case domain.StatusEditing, domain.StatusUnderReview,
			domain.StatusAwaitingExecutor, domain.StatusAwaitingExecutorBroadcast,
			domain.StatusAwaitingPayment, domain.StatusInProgress:
		default:
			return nil, invalidf(o.ID, o.Status, "cancel")
		}
		cancelled = o
		return append(orders[:i], orders[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	if cancelled.Status == domain.StatusInProgress {
		if err := e.Mirror.Delete(ctx, cancelled.ID); err != nil {
			log.Printf("mirror: delete of order %d failed: %v", cancelled.ID, err)
		}
	}
	e.record(ctx, "order.cancelled", cancelled.ID, actorID, events.EventPayload{"was_status": string(cancelled.Status)})
	if actorID != e.operator() {
		e.send(ctx, notify.Notification{
			Recipient: e.operator(),
			Template:  "order.cancelled.admin",
			Params:    orderParams(cancelled),
		})
	}
	if cancelled.ExecutorID != "" && cancelled.ExecutorID != e.operator() {
		e.send(ctx, notify.Notification{
			Recipient: cancelled.ExecutorID,
			Template:  "order.cancelled.executor",
			Params:    orderParams(cancelled),
		})
	}
	return nil
}

// AssignExecutor invites one registered executor to an under_review
// order. The executor is only recorded as invited; executor_id is set
// when an offer is approved.
func (e *Engine) AssignExecutor(ctx context.Context, orderID int64, executorID, actorID string) (domain.Order, error) {
	if actorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	ex, err := e.Repo.GetExecutor(ctx, executorID)
	if err == repo.ErrNotFound {
		return domain.Order{}, validationf("executor %s is not registered", executorID)
	}
	if err != nil {
		return domain.Order{}, err
	}
	var assigned domain.Order
	err = e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusUnderReview {
			return nil, invalidf(o.ID, o.Status, "assign")
		}
		o.Status = domain.StatusAwaitingExecutor
		o.InvitedExecutorID = ex.ID
		o.Declined = nil
		assigned = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "order.assigned", assigned.ID, actorID, events.EventPayload{"executor_id": ex.ID})
	e.send(ctx, notify.Notification{
		Recipient: ex.ID,
		Template:  "order.assigned.executor",
		Params:    orderParams(assigned),
		Actions: []notify.Action{
			{Label: "Принять", Command: "offer"},
			{Label: "Отказаться", Command: "decline"},
		},
	})
	return assigned, nil
}

// Broadcast offers an under_review order to every registered executor.
func (e *Engine) Broadcast(ctx context.Context, orderID int64, actorID string) (domain.Order, error) {
	if actorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	executors, err := e.Repo.ListExecutors(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	if len(executors) == 0 {
		return domain.Order{}, validationf("no executors registered")
	}
	var broadcast domain.Order
	err = e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusUnderReview {
			return nil, invalidf(o.ID, o.Status, "broadcast")
		}
		o.Status = domain.StatusAwaitingExecutorBroadcast
		o.InvitedExecutorID = ""
		o.Declined = nil
		broadcast = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "order.broadcast", broadcast.ID, actorID, events.EventPayload{"executors": len(executors)})
	ns := make([]notify.Notification, 0, len(executors))
	for _, ex := range executors {
		ns = append(ns, notify.Notification{
			Recipient: ex.ID,
			Template:  "order.broadcast.executor",
			Params:    orderParams(broadcast),
			Actions: []notify.Action{
				{Label: "Принять", Command: "offer"},
				{Label: "Отказаться", Command: "decline"},
			},
		})
	}
	e.send(ctx, ns...)
	return broadcast, nil
}

// SelfTakeOptions are the admin's own terms when taking an order.
type SelfTakeOptions struct {
	OrderID  int64
	Price    int
	Deadline domain.Deadline
	Comment  string
	ActorID  string
}

// SelfTake makes the operator the executor, skipping negotiation. Legal
// from under_review and both confirmation states; any pending offers
// are discarded and the order goes straight to awaiting_payment.
func (e *Engine) SelfTake(ctx context.Context, opts SelfTakeOptions) (domain.Order, error) {
	if opts.ActorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	if opts.Price <= 0 {
		return domain.Order{}, validationf("price must be a positive integer")
	}
	var taken domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, opts.OrderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		switch o.Status {
		case domain.StatusUnderReview, domain.StatusAwaitingExecutor, domain.StatusAwaitingExecutorBroadcast:
		default:
			return nil, invalidf(o.ID, o.Status, "self-take")
		}
		o.ExecutorID = e.operator()
		o.ExecutorPrice = opts.Price
		o.FinalPrice = opts.Price
		dl := opts.Deadline
		o.AssignedDeadline = &dl
		o.AdminComment = opts.Comment
		o.Offers = nil
		o.InvitedExecutorID = ""
		o.Declined = nil
		e.beginPayment(o)
		taken = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "order.self_taken", taken.ID, opts.ActorID, events.EventPayload{"price": opts.Price})
	e.send(ctx, payRequestNotification(taken))
	return taken, nil
}

// SubmitWork records the executor's delivery. Normally the work goes to
// the admin for review; when the operator is the executor the review
// step is skipped and the client gets it directly.
func (e *Engine) SubmitWork(ctx context.Context, orderID int64, executorID string, file domain.Blob) (domain.Order, error) {
	var submitted domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 || orders[i].ExecutorID != executorID {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusInProgress && o.Status != domain.StatusNeedsRevision {
			return nil, invalidf(o.ID, o.Status, "submit-work")
		}
		o.Submitted = &domain.Submission{
			File:        file,
			SubmittedAt: e.now().UTC().Format(time.RFC3339),
		}
		if o.ExecutorIsOperator(e.operator()) {
			o.Status = domain.StatusApproved
		} else {
			o.Status = domain.StatusSubmittedForReview
		}
		submitted = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "work.submitted", submitted.ID, executorID, nil)
	if submitted.Status == domain.StatusApproved {
		e.send(ctx, workReadyNotification(submitted))
	} else {
		e.send(ctx, notify.Notification{
			Recipient: e.operator(),
			Template:  "work.submitted.admin",
			Params:    orderParams(submitted),
			Actions: []notify.Action{
				{Label: "Одобрить", Command: "work-approve"},
				{Label: "На доработку", Command: "work-reject"},
			},
		})
	}
	return submitted, nil
}

// ApproveWork forwards the reviewed work to the client.
func (e *Engine) ApproveWork(ctx context.Context, orderID int64, actorID string) (domain.Order, error) {
	if actorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	var approved domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusSubmittedForReview {
			return nil, invalidf(o.ID, o.Status, "work-approve")
		}
		o.Status = domain.StatusApproved
		approved = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "work.approved", approved.ID, actorID, nil)
	e.send(ctx, workReadyNotification(approved))
	return approved, nil
}

// RejectWork sends the delivery back to the executor with the admin's
// revision comment.
func (e *Engine) RejectWork(ctx context.Context, orderID int64, comment, actorID string) (domain.Order, error) {
	if actorID != e.operator() {
		return domain.Order{}, ErrNotFound
	}
	if comment == "" {
		return domain.Order{}, validationf("revision comment is required")
	}
	var rejected domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusSubmittedForReview {
			return nil, invalidf(o.ID, o.Status, "work-reject")
		}
		o.Status = domain.StatusNeedsRevision
		o.RevisionComment = comment
		rejected = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "work.rejected", rejected.ID, actorID, events.EventPayload{"comment": comment})
	e.send(ctx, revisionNotification(rejected))
	return rejected, nil
}

// AcceptWork completes the order. The admin hears the profit, the
// executor their earnings, and the mirror row flips to completed.
func (e *Engine) AcceptWork(ctx context.Context, orderID int64, clientID string) (domain.Order, error) {
	var completed domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 || orders[i].ClientID != clientID {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusApproved {
			return nil, invalidf(o.ID, o.Status, "accept-work")
		}
		o.Status = domain.StatusCompleted
		completed = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := e.Mirror.UpdateStatus(ctx, completed.ID, string(domain.StatusCompleted)); err != nil {
		log.Printf("mirror: status update of order %d failed: %v", completed.ID, err)
	}
	profit := completed.FinalPrice - completed.ExecutorPrice
	e.record(ctx, "work.accepted", completed.ID, clientID, events.EventPayload{"profit": profit})
	ns := []notify.Notification{{
		Recipient: e.operator(),
		Template:  "order.completed.admin",
		Params: mergeParams(orderParams(completed), map[string]any{
			"final_price":    completed.FinalPrice,
			"executor_price": completed.ExecutorPrice,
			"profit":         profit,
		}),
	}}
	if completed.ExecutorID != "" && !completed.ExecutorIsOperator(e.operator()) {
		ns = append(ns, notify.Notification{
			Recipient: completed.ExecutorID,
			Template:  "order.completed.executor",
			Params:    mergeParams(orderParams(completed), map[string]any{"earnings": completed.ExecutorPrice}),
		})
	}
	e.send(ctx, ns...)
	return completed, nil
}

// RequestRevision sends an approved delivery back for rework with the
// client's comment. The comment field holds only the latest comment;
// the event log keeps the full history.
func (e *Engine) RequestRevision(ctx context.Context, orderID int64, clientID, comment string) (domain.Order, error) {
	if comment == "" {
		return domain.Order{}, validationf("revision comment is required")
	}
	var revised domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 || orders[i].ClientID != clientID {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusApproved {
			return nil, invalidf(o.ID, o.Status, "request-revision")
		}
		o.Status = domain.StatusNeedsRevision
		o.RevisionComment = comment
		revised = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "revision.requested", revised.ID, clientID, events.EventPayload{"comment": comment})
	e.send(ctx, revisionNotification(revised))
	return revised, nil
}

// RefuseOrder lets the executor walk away from an in_progress order.
// The order returns to under_review with the executor fields cleared,
// and the admin hears the picked reason plus free-text comment.
func (e *Engine) RefuseOrder(ctx context.Context, orderID int64, executorID, reason, comment string) (domain.Order, error) {
	if reasons := e.Config.Catalog.RefusalReasons; len(reasons) > 0 {
		known := false
		for _, r := range reasons {
			if r == reason {
				known = true
				break
			}
		}
		if !known {
			return domain.Order{}, validationf("unknown refusal reason %q", reason)
		}
	}
	var refused domain.Order
	err := e.mutate(ctx, func(orders []domain.Order) ([]domain.Order, error) {
		i := findOrder(orders, orderID)
		if i < 0 || orders[i].ExecutorID != executorID {
			return nil, ErrNotFound
		}
		o := &orders[i]
		if o.Status != domain.StatusInProgress {
			return nil, invalidf(o.ID, o.Status, "refuse")
		}
		o.Status = domain.StatusUnderReview
		o.ExecutorID = ""
		o.ExecutorPrice = 0
		o.FinalPrice = 0
		o.AssignedDeadline = nil
		o.DueDate = ""
		o.Offers = nil
		o.Submitted = nil
		o.Payment = domain.Payment{}
		o.Refusal = &domain.Refusal{Reason: reason, Comment: comment}
		refused = *o
		return orders, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	e.record(ctx, "order.refused", refused.ID, executorID, events.EventPayload{"reason": reason, "comment": comment})
	e.send(ctx, notify.Notification{
		Recipient: e.operator(),
		Template:  "order.refused.admin",
		Params: mergeParams(orderParams(refused), map[string]any{
			"executor_id": executorID,
			"reason":      reason,
			"comment":     comment,
		}),
	})
	return refused, nil
}

// ListFilter narrows ListOrders; zero values match everything.
type ListFilter struct {
	ClientID   string
	ExecutorID string
	Status     domain.Status
}

func (e *Engine) ListOrders(ctx context.Context, f ListFilter) ([]domain.Order, error) {
	orders, err := e.Store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var res []domain.Order
	for _, o := range orders {
		if f.ClientID != "" && o.ClientID != f.ClientID {
			continue
		}
		if f.ExecutorID != "" && o.ExecutorID != f.ExecutorID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		res = append(res, o)
	}
	return res, nil
}

func (e *Engine) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	orders, err := e.Store.LoadAll(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	i := findOrder(orders, id)
	if i < 0 {
		return domain.Order{}, ErrNotFound
	}
	return orders[i], nil
}

func (e *Engine) listExecutors(ctx context.Context) []domain.Executor {
	executors, err := e.Repo.ListExecutors(ctx)
	if err != nil {
		log.Printf("list executors failed: %v", err)
		return nil
	}
	return executors
}

func orderParams(o domain.Order) map[string]any {
	return map[string]any{
		"order_id":  o.ID,
		"subject":   o.Subject,
		"work_type": o.WorkType,
		"deadline":  o.Deadline,
		"status":    string(o.Status),
	}
}

func mergeParams(base map[string]any, extra map[string]any) map[string]any {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func workReadyNotification(o domain.Order) notify.Notification {
	params := orderParams(o)
	if o.Submitted != nil {
		params["file"] = o.Submitted.File.Ref
	}
	return notify.Notification{
		Recipient: o.ClientID,
		Template:  "work.ready.client",
		Params:    params,
		Actions: []notify.Action{
			{Label: "Принять", Command: "accept-work"},
			{Label: "На доработку", Command: "request-revision"},
		},
	}
}

func revisionNotification(o domain.Order) notify.Notification {
	return notify.Notification{
		Recipient: o.ExecutorID,
		Template:  "revision.requested.executor",
		Params:    mergeParams(orderParams(o), map[string]any{"comment": o.RevisionComment}),
	}
}
