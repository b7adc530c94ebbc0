package update

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shipledger/shipledger/internal/ledger"
	"github.com/shipledger/shipledger/internal/lifecycle"
)

type fakeUpserter struct {
	docs []map[string]any
	err  error
}

func (f *fakeUpserter) Upsert(_ context.Context, doc map[string]any) (ledger.CommitResult, error) {
	f.docs = append(f.docs, doc)
	if f.err != nil {
		return ledger.CommitResult{}, f.err
	}
	return ledger.CommitResult{TxID: "tx-1"}, nil
}

type fakeResync struct {
	staleCount int
}

func (f *fakeResync) MarkStale() { f.staleCount++ }

func newTestOrchestrator(upserter *fakeUpserter) (*Orchestrator, *fakeResync, *Notifications) {
	resync := &fakeResync{}
	notes := NewNotifications()
	orch := NewOrchestrator(func(context.Context) (Upserter, error) {
		return upserter, nil
	}, resync, notes, zerolog.Nop())
	return orch, resync, notes
}

func TestApplyStripsNilFields(t *testing.T) {
	upserter := &fakeUpserter{}
	orch, _, _ := newTestOrchestrator(upserter)

	patch := lifecycle.Patch{
		"status":         nil,
		"trackingNumber": "TRK-2",
	}
	if err := orch.Apply(context.Background(), "shipment/2", patch); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(upserter.docs) != 1 {
		t.Fatalf("expected one upsert, got %d", len(upserter.docs))
	}
	doc := upserter.docs[0]
	if doc["id"] != "shipment/2" || doc["trackingNumber"] != "TRK-2" {
		t.Fatalf("unexpected doc %v", doc)
	}
	if _, ok := doc["status"]; ok {
		t.Fatalf("nil field must never reach the store: %v", doc)
	}
	if len(doc) != 2 {
		t.Fatalf("expected only id and trackingNumber, got %v", doc)
	}
}

func TestApplySuccessNotifiesAndMarksStale(t *testing.T) {
	upserter := &fakeUpserter{}
	orch, resync, notes := newTestOrchestrator(upserter)

	patch := lifecycle.Patch{"status": "In Transit", "shippedDate": "2026-03-14T09:30:00Z"}
	if err := orch.Apply(context.Background(), "shipment/1", patch); err != nil {
		t.Fatalf("apply: %v", err)
	}

	note := notes.Current()
	if !note.Show || !note.Success || note.Title != "Success" || note.Detail != "Shipment updated" {
		t.Fatalf("unexpected notification %+v", note)
	}
	if resync.staleCount != 1 {
		t.Fatalf("success must mark collections stale exactly once, got %d", resync.staleCount)
	}
}

func TestApplyFailureSurfacesStructuredMessage(t *testing.T) {
	upserter := &fakeUpserter{
		err: &ledger.StoreError{Op: "upsert", Status: 400, Body: &ledger.ErrorBody{Message: "Ledger not found"}},
	}
	orch, resync, notes := newTestOrchestrator(upserter)

	err := orch.Apply(context.Background(), "shipment/1", lifecycle.Patch{"status": "Delivered"})
	if err == nil {
		t.Fatalf("expected upsert failure")
	}

	note := notes.Current()
	if !note.Show || note.Success || note.Title != "Failure" {
		t.Fatalf("unexpected notification %+v", note)
	}
	if note.Detail != "Ledger not found" {
		t.Fatalf("expected structured detail, got %q", note.Detail)
	}
	if resync.staleCount != 0 {
		t.Fatalf("failure must not trigger resynchronization")
	}
}

func TestApplyFailureWithoutBodyFallsBack(t *testing.T) {
	upserter := &fakeUpserter{err: errors.New("boom")}
	orch, _, notes := newTestOrchestrator(upserter)

	if err := orch.Apply(context.Background(), "shipment/1", lifecycle.Patch{"status": "Delivered"}); err == nil {
		t.Fatalf("expected upsert failure")
	}
	if note := notes.Current(); note.Detail != "Unknown error" {
		t.Fatalf("expected fallback detail, got %q", note.Detail)
	}
}

func TestApplyConnectionFailure(t *testing.T) {
	resync := &fakeResync{}
	notes := NewNotifications()
	orch := NewOrchestrator(func(context.Context) (Upserter, error) {
		return nil, errors.New("ledger: connect failed")
	}, resync, notes, zerolog.Nop())

	if err := orch.Apply(context.Background(), "shipment/1", lifecycle.Patch{"status": "Delivered"}); err == nil {
		t.Fatalf("expected connect failure to surface")
	}
	if note := notes.Current(); !note.Show || note.Success {
		t.Fatalf("connect failure must raise a failure notification, got %+v", note)
	}
}

func TestNotificationDismiss(t *testing.T) {
	upserter := &fakeUpserter{}
	orch, _, notes := newTestOrchestrator(upserter)

	if err := orch.Apply(context.Background(), "shipment/1", lifecycle.Patch{"status": "In Transit"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !notes.Current().Show {
		t.Fatalf("notification should be visible after update")
	}
	notes.Dismiss()
	note := notes.Current()
	if note.Show {
		t.Fatalf("dismiss must hide the notification")
	}
	if note.Detail != "Shipment updated" {
		t.Fatalf("dismiss must not erase the last outcome detail, got %+v", note)
	}
}
