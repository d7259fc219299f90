package engine_test

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"orderline/internal/config"
	"orderline/internal/db"
	"orderline/internal/domain"
	"orderline/internal/engine"
	"orderline/internal/migrate"
	"orderline/internal/mirror"
	"orderline/internal/notify"
	"orderline/internal/store"
)

type testEnv struct {
	Engine *engine.Engine
	Rec    *notify.Recorder
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("admin")
	eng := engine.New(conn, store.NewFileStore(filepath.Join(dir, "orders.json")), cfg)
	eng.Now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	rec := &notify.Recorder{}
	eng.Notify = rec
	ctx := context.Background()
	for _, ex := range []domain.Executor{{ID: "exec-1", Name: "First"}, {ID: "exec-2", Name: "Second"}} {
		if err := eng.Repo.AddExecutor(ctx, ex); err != nil {
			t.Fatalf("add executor: %v", err)
		}
	}
	return testEnv{Engine: eng, Rec: rec, Ctx: ctx}
}

func (env testEnv) confirmedOrder(t *testing.T, clientID string) domain.Order {
	t.Helper()
	o, err := env.Engine.CreateDraft(env.Ctx, engine.DraftOptions{
		ClientID: clientID,
		Subject:  "Economics",
		WorkType: "coursework",
		Deadline: "15.04.2024",
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	o, err = env.Engine.Confirm(env.Ctx, o.ID, clientID, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return o
}

func (env testEnv) inProgressOrder(t *testing.T, clientID string) domain.Order {
	t.Helper()
	o := env.confirmedOrder(t, clientID)
	if _, err := env.Engine.Broadcast(env.Ctx, o.ID, "admin"); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if _, err := env.Engine.SubmitOffer(env.Ctx, engine.OfferOptions{
		OrderID: o.ID, ExecutorID: "exec-1", Price: 1000,
		Deadline: domain.Deadline{Kind: domain.DeadlineDays, Days: 5},
	}); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if _, err := env.Engine.ApproveOffer(env.Ctx, engine.ApproveOptions{
		OrderID: o.ID, ExecutorID: "exec-1", PriceOverride: 1200, ActorID: "admin",
	}); err != nil {
		t.Fatalf("approve offer: %v", err)
	}
	if _, err := env.Engine.SubmitPaymentProof(env.Ctx, o.ID, clientID, domain.Blob{Kind: domain.BlobPhoto, Ref: "p1"}); err != nil {
		t.Fatalf("pay proof: %v", err)
	}
	started, err := env.Engine.AcceptPayment(env.Ctx, o.ID, "admin")
	if err != nil {
		t.Fatalf("accept payment: %v", err)
	}
	return started
}

func TestBroadcastOfferApproval(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if o.Status != domain.StatusUnderReview {
		t.Fatalf("expected under_review, got %s", o.Status)
	}

	o, err := env.Engine.Broadcast(env.Ctx, o.ID, "admin")
	if err != nil || o.Status != domain.StatusAwaitingExecutorBroadcast {
		t.Fatalf("broadcast: %v status=%s", err, o.Status)
	}
	if got := len(env.Rec.ByTemplate("order.broadcast.executor")); got != 2 {
		t.Fatalf("expected 2 executor notifications, got %d", got)
	}

	o, err = env.Engine.SubmitOffer(env.Ctx, engine.OfferOptions{
		OrderID: o.ID, ExecutorID: "exec-1", Price: 1000,
		Deadline: domain.Deadline{Kind: domain.DeadlineDays, Days: 5},
	})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	// an offer never changes the status; the admin decides
	if o.Status != domain.StatusAwaitingExecutorBroadcast {
		t.Fatalf("offer changed status to %s", o.Status)
	}
	if len(o.Offers) != 1 || o.Offers[0].Price != 1000 {
		t.Fatalf("unexpected offers %+v", o.Offers)
	}

	o, err = env.Engine.ApproveOffer(env.Ctx, engine.ApproveOptions{
		OrderID: o.ID, ExecutorID: "exec-1", PriceOverride: 1200, ActorID: "admin",
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if o.Status != domain.StatusAwaitingPayment {
		t.Fatalf("expected awaiting_payment, got %s", o.Status)
	}
	if o.ExecutorID != "exec-1" || o.ExecutorPrice != 1000 || o.FinalPrice != 1200 {
		t.Fatalf("terms not collapsed: %+v", o)
	}
	if len(o.Offers) != 0 {
		t.Fatalf("offers survived approval")
	}
	if len(env.Rec.ByTemplate("order.pay.client")) != 1 {
		t.Fatalf("client was not asked to pay")
	}
}

func TestOfferResubmissionReplaces(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if _, err := env.Engine.Broadcast(env.Ctx, o.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	dl := domain.Deadline{Kind: domain.DeadlineDays, Days: 3}
	if _, err := env.Engine.SubmitOffer(env.Ctx, engine.OfferOptions{OrderID: o.ID, ExecutorID: "exec-1", Price: 1000, Deadline: dl}); err != nil {
		t.Fatal(err)
	}
	o, err := env.Engine.SubmitOffer(env.Ctx, engine.OfferOptions{OrderID: o.ID, ExecutorID: "exec-1", Price: 900, Deadline: dl})
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Offers) != 1 {
		t.Fatalf("expected one offer per executor, got %d", len(o.Offers))
	}
	if o.Offers[0].Price != 900 {
		t.Fatalf("resubmission did not replace, price=%d", o.Offers[0].Price)
	}
}

func TestRejectLastOfferRevertsToUnderReview(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if _, err := env.Engine.AssignExecutor(env.Ctx, o.ID, "exec-1", "admin"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SubmitOffer(env.Ctx, engine.OfferOptions{
		OrderID: o.ID, ExecutorID: "exec-1", Price: 500,
		Deadline: domain.Deadline{Kind: domain.DeadlineUntilOriginal},
	}); err != nil {
		t.Fatal(err)
	}
	o, err := env.Engine.RejectOffer(env.Ctx, o.ID, "exec-1", "admin")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusUnderReview {
		t.Fatalf("expected under_review after last offer rejected, got %s", o.Status)
	}
	if o.ExecutorID != "" || len(o.Offers) != 0 {
		t.Fatalf("leftover executor state: %+v", o)
	}
}

func TestDeclineSoloInvitation(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if _, err := env.Engine.AssignExecutor(env.Ctx, o.ID, "exec-1", "admin"); err != nil {
		t.Fatal(err)
	}
	o, err := env.Engine.DeclineInvitation(env.Ctx, o.ID, "exec-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusUnderReview {
		t.Fatalf("expected under_review, got %s", o.Status)
	}
	// declining an order already reassigned away is a silent no-op
	if _, err := env.Engine.AssignExecutor(env.Ctx, o.ID, "exec-2", "admin"); err != nil {
		t.Fatal(err)
	}
	_, err = env.Engine.DeclineInvitation(env.Ctx, o.ID, "exec-1")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, err := env.Engine.GetOrder(env.Ctx, o.ID)
	if err != nil || got.Status != domain.StatusAwaitingExecutor || got.InvitedExecutorID != "exec-2" {
		t.Fatalf("stale decline changed state: %+v err=%v", got, err)
	}
}

func TestBroadcastRevertsOnlyWhenAllDeclined(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if _, err := env.Engine.Broadcast(env.Ctx, o.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	o, err := env.Engine.DeclineInvitation(env.Ctx, o.ID, "exec-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusAwaitingExecutorBroadcast {
		t.Fatalf("one decline reverted the order: %s", o.Status)
	}
	o, err = env.Engine.DeclineInvitation(env.Ctx, o.ID, "exec-2")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusUnderReview {
		t.Fatalf("expected under_review after everyone declined, got %s", o.Status)
	}
	if len(env.Rec.ByTemplate("offer.all_declined.admin")) != 1 {
		t.Fatalf("admin not told all declined")
	}
}

func TestPaymentFlowStartsWork(t *testing.T) {
	env := newTestEnv(t)
	o := env.inProgressOrder(t, "client-1")
	if o.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", o.Status)
	}
	if o.Payment.State != domain.PaymentAccepted {
		t.Fatalf("payment state %s", o.Payment.State)
	}
	// 5-day offer approved on 2024-03-01 resolves to a concrete date
	if o.DueDate != "06.03.2024" {
		t.Fatalf("due date %q", o.DueDate)
	}
	if len(env.Rec.ByTemplate("payment.accepted.client")) != 1 ||
		len(env.Rec.ByTemplate("payment.accepted.executor")) != 1 {
		t.Fatalf("both sides should hear payment accepted")
	}
}

func TestPaymentProofMustBeDocumentOrPhoto(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if _, err := env.Engine.SelfTake(env.Ctx, engine.SelfTakeOptions{
		OrderID: o.ID, Price: 800,
		Deadline: domain.Deadline{Kind: domain.DeadlineDays, Days: 2},
		ActorID:  "admin",
	}); err != nil {
		t.Fatal(err)
	}
	_, err := env.Engine.SubmitPaymentProof(env.Ctx, o.ID, "client-1", domain.Blob{Kind: domain.BlobText, Ref: "paid!"})
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRejectPaymentAsksAgain(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if _, err := env.Engine.SelfTake(env.Ctx, engine.SelfTakeOptions{
		OrderID: o.ID, Price: 800,
		Deadline: domain.Deadline{Kind: domain.DeadlineDays, Days: 2},
		ActorID:  "admin",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SubmitPaymentProof(env.Ctx, o.ID, "client-1", domain.Blob{Kind: domain.BlobDocument, Ref: "receipt"}); err != nil {
		t.Fatal(err)
	}
	o, err := env.Engine.RejectPayment(env.Ctx, o.ID, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusAwaitingPayment || o.Payment.State != domain.PaymentRejected {
		t.Fatalf("expected rejected payment: %+v", o.Payment)
	}
	if o.Payment.Proof != nil || o.Payment.ProofID != "" {
		t.Fatalf("rejected proof not discarded")
	}
	// the client may retry with a new proof
	o, err = env.Engine.SubmitPaymentProof(env.Ctx, o.ID, "client-1", domain.Blob{Kind: domain.BlobPhoto, Ref: "receipt-2"})
	if err != nil || o.Payment.State != domain.PaymentProofSubmitted {
		t.Fatalf("retry after rejection: %v %+v", err, o.Payment)
	}
}

func TestReviewRevisionCycle(t *testing.T) {
	env := newTestEnv(t)
	o := env.inProgressOrder(t, "client-1")

	o, err := env.Engine.SubmitWork(env.Ctx, o.ID, "exec-1", domain.Blob{Kind: domain.BlobDocument, Ref: "v1"})
	if err != nil || o.Status != domain.StatusSubmittedForReview {
		t.Fatalf("submit: %v status=%s", err, o.Status)
	}
	o, err = env.Engine.RejectWork(env.Ctx, o.ID, "fix citations", "admin")
	if err != nil || o.Status != domain.StatusNeedsRevision {
		t.Fatalf("reject: %v status=%s", err, o.Status)
	}
	if o.RevisionComment != "fix citations" {
		t.Fatalf("comment %q", o.RevisionComment)
	}
	o, err = env.Engine.SubmitWork(env.Ctx, o.ID, "exec-1", domain.Blob{Kind: domain.BlobDocument, Ref: "v2"})
	if err != nil || o.Status != domain.StatusSubmittedForReview {
		t.Fatalf("resubmit: %v status=%s", err, o.Status)
	}
	o, err = env.Engine.ApproveWork(env.Ctx, o.ID, "admin")
	if err != nil || o.Status != domain.StatusApproved {
		t.Fatalf("approve: %v status=%s", err, o.Status)
	}
	o, err = env.Engine.AcceptWork(env.Ctx, o.ID, "client-1")
	if err != nil || o.Status != domain.StatusCompleted {
		t.Fatalf("accept: %v status=%s", err, o.Status)
	}
	done := env.Rec.ByTemplate("order.completed.admin")
	if len(done) != 1 {
		t.Fatalf("admin completion missing")
	}
	if done[0].Params["profit"] != 200 {
		t.Fatalf("profit %v", done[0].Params["profit"])
	}
}

func TestClientRevisionAfterApproval(t *testing.T) {
	env := newTestEnv(t)
	o := env.inProgressOrder(t, "client-1")
	if _, err := env.Engine.SubmitWork(env.Ctx, o.ID, "exec-1", domain.Blob{Kind: domain.BlobDocument, Ref: "v1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ApproveWork(env.Ctx, o.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	o, err := env.Engine.RequestRevision(env.Ctx, o.ID, "client-1", "wrong chapter order")
	if err != nil || o.Status != domain.StatusNeedsRevision {
		t.Fatalf("revision: %v status=%s", err, o.Status)
	}
	if len(env.Rec.ByTemplate("revision.requested.executor")) != 1 {
		t.Fatalf("executor not told about revision")
	}
}

func TestSelfTakeSkipsNegotiationAndReview(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	o, err := env.Engine.SelfTake(env.Ctx, engine.SelfTakeOptions{
		OrderID: o.ID, Price: 800,
		Deadline: domain.Deadline{Kind: domain.DeadlineDays, Days: 3},
		ActorID:  "admin",
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusAwaitingPayment || o.ExecutorID != "admin" || o.FinalPrice != 800 {
		t.Fatalf("self-take state: %+v", o)
	}
	if len(o.Offers) != 0 {
		t.Fatalf("offers populated on self-take")
	}
	if _, err := env.Engine.SubmitPaymentProof(env.Ctx, o.ID, "client-1", domain.Blob{Kind: domain.BlobPhoto, Ref: "p"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AcceptPayment(env.Ctx, o.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	// operator delivery skips the review step
	o, err = env.Engine.SubmitWork(env.Ctx, o.ID, "admin", domain.Blob{Kind: domain.BlobDocument, Ref: "done"})
	if err != nil || o.Status != domain.StatusApproved {
		t.Fatalf("operator submit: %v status=%s", err, o.Status)
	}
	if len(env.Rec.ByTemplate("work.ready.client")) != 1 {
		t.Fatalf("client not told work is ready")
	}
}

func TestCancelRemovesOrder(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if err := env.Engine.Cancel(env.Ctx, o.ID, "client-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := env.Engine.GetOrder(env.Ctx, o.ID)
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("cancelled order still readable: %v", err)
	}
}

func TestCancelIllegalAfterSubmission(t *testing.T) {
	env := newTestEnv(t)
	o := env.inProgressOrder(t, "client-1")
	if _, err := env.Engine.SubmitWork(env.Ctx, o.ID, "exec-1", domain.Blob{Kind: domain.BlobDocument, Ref: "v1"}); err != nil {
		t.Fatal(err)
	}
	err := env.Engine.Cancel(env.Ctx, o.ID, "client-1")
	var ite *engine.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCancelPaymentReopensNegotiation(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t, "client-1")
	if _, err := env.Engine.Broadcast(env.Ctx, o.ID, "admin"); err != nil {
		t.Fatal(err)
	}
	dl := domain.Deadline{Kind: domain.DeadlineDays, Days: 4}
	if _, err := env.Engine.SubmitOffer(env.Ctx, engine.OfferOptions{OrderID: o.ID, ExecutorID: "exec-1", Price: 700, Deadline: dl}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ApproveOffer(env.Ctx, engine.ApproveOptions{OrderID: o.ID, ExecutorID: "exec-1", ActorID: "admin"}); err != nil {
		t.Fatal(err)
	}
	o, err := env.Engine.CancelPayment(env.Ctx, o.ID, "client-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusAwaitingExecutor || o.InvitedExecutorID != "exec-1" {
		t.Fatalf("negotiation not reopened: %+v", o)
	}
	if len(o.Offers) != 1 || o.Offers[0].Price != 700 {
		t.Fatalf("approved terms not restored as offer: %+v", o.Offers)
	}
	if o.ExecutorID != "" || o.FinalPrice != 0 {
		t.Fatalf("executor fields not cleared: %+v", o)
	}
}

func TestRefuseClearsExecutorState(t *testing.T) {
	env := newTestEnv(t)
	o := env.inProgressOrder(t, "client-1")
	o, err := env.Engine.RefuseOrder(env.Ctx, o.ID, "exec-1", "hard_topic", "not my field")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusUnderReview {
		t.Fatalf("expected under_review, got %s", o.Status)
	}
	if o.ExecutorID != "" || o.FinalPrice != 0 || o.DueDate != "" {
		t.Fatalf("executor state survived refusal: %+v", o)
	}
	if o.Refusal == nil || o.Refusal.Reason != "hard_topic" {
		t.Fatalf("refusal not recorded: %+v", o.Refusal)
	}
	_, err = env.Engine.RefuseOrder(env.Ctx, o.ID, "exec-1", "bad_reason", "")
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected unknown reason to fail validation, got %v", err)
	}
}

func TestConfirmSweepsStaleDrafts(t *testing.T) {
	env := newTestEnv(t)
	stale, err := env.Engine.CreateDraft(env.Ctx, engine.DraftOptions{ClientID: "client-1", Subject: "old", WorkType: "essay"})
	if err != nil {
		t.Fatal(err)
	}
	o, err := env.Engine.CreateDraft(env.Ctx, engine.DraftOptions{ClientID: "client-1", Subject: "new", WorkType: "essay"})
	if err != nil {
		t.Fatal(err)
	}
	if o.ID != stale.ID+1 {
		t.Fatalf("ids not sequential: %d then %d", stale.ID, o.ID)
	}
	if _, err := env.Engine.Confirm(env.Ctx, o.ID, "client-1", nil); err != nil {
		t.Fatal(err)
	}
	_, err = env.Engine.GetOrder(env.Ctx, stale.ID)
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("stale draft survived confirm: %v", err)
	}
}

func TestNotificationFailureWarnsAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.Rec.Fail = func(n notify.Notification) error {
		if n.Recipient == "exec-1" {
			return fmt.Errorf("chat unreachable")
		}
		return nil
	}
	o := env.confirmedOrder(t, "client-1")
	if o.Status != domain.StatusUnderReview {
		t.Fatalf("delivery failure must not roll back, got %s", o.Status)
	}
	warns := env.Rec.ByTemplate("warning.admin")
	if len(warns) != 1 {
		t.Fatalf("expected one admin warning, got %d", len(warns))
	}
	unreachable, _ := warns[0].Params["unreachable"].([]string)
	if len(unreachable) != 1 || unreachable[0] != "exec-1" {
		t.Fatalf("warning params %v", warns[0].Params)
	}
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open sheet: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(records) == 0 {
		t.Fatalf("sheet has no header")
	}
	return records[1:]
}

func TestMirrorFeedsIDsAndBookkeeping(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "sheet.csv")
	m := mirror.NewCSVMirror(path)
	env.Engine.Mirror = m
	if err := m.Append(env.Ctx, mirror.Row{OrderID: 41, ClientName: "Seed", Status: "completed"}); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	o := env.inProgressOrder(t, "client-1")
	// the sheet already holds order 41, so the local store must not
	// hand out anything at or below it
	if o.ID != 42 {
		t.Fatalf("expected id 42 past the mirror max, got %d", o.ID)
	}

	rows := readSheet(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected seed row plus one bookkeeping row, got %d", len(rows))
	}
	added := rows[1]
	if added[0] != "42" || added[9] != "1200" || added[10] != "200" || added[11] != "in_progress" {
		t.Fatalf("bookkeeping row %v", added)
	}

	if err := env.Engine.Cancel(env.Ctx, o.ID, "client-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	rows = readSheet(t, path)
	if len(rows) != 1 || rows[0][0] != "41" {
		t.Fatalf("cancelled order not removed from sheet: %v", rows)
	}
}

func TestListOrdersFilters(t *testing.T) {
	env := newTestEnv(t)
	env.confirmedOrder(t, "client-1")
	env.confirmedOrder(t, "client-2")
	mine, err := env.Engine.ListOrders(env.Ctx, engine.ListFilter{ClientID: "client-1"})
	if err != nil || len(mine) != 1 {
		t.Fatalf("client filter: %v %d", err, len(mine))
	}
	reviewing, err := env.Engine.ListOrders(env.Ctx, engine.ListFilter{Status: domain.StatusUnderReview})
	if err != nil || len(reviewing) != 2 {
		t.Fatalf("status filter: %v %d", err, len(reviewing))
	}
}
