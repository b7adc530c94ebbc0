package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/shipledger/shipledger/internal/model"
)

var testClock = func() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

const testStamp = "2026-03-14T09:30:00Z"

func pendingShipment() model.Shipment {
	return model.Shipment{
		ID:             "shipment/1",
		TrackingNumber: "TRK-1",
		FromLocation:   model.Reference{ID: "location/1"},
		ToLocation:     model.Reference{ID: "location/2"},
		Status:         model.StatusPending,
	}
}

func TestShipOut(t *testing.T) {
	machine := NewMachine(WithClock(testClock))

	patch, err := machine.ShipOut(pendingShipment(), nil)
	if err != nil {
		t.Fatalf("ship out: %v", err)
	}
	if patch["status"] != string(model.StatusInTransit) {
		t.Fatalf("expected In Transit status, got %v", patch["status"])
	}
	if patch["shippedDate"] != testStamp {
		t.Fatalf("expected shippedDate %q, got %v", testStamp, patch["shippedDate"])
	}
	if _, ok := patch["deliveredDate"]; ok {
		t.Fatalf("ship out must not touch deliveredDate: %v", patch)
	}
	if len(patch) != 2 {
		t.Fatalf("expected exactly status and shippedDate, got %v", patch)
	}
}

func TestConfirmReceipt(t *testing.T) {
	machine := NewMachine(WithClock(testClock))
	shipment := pendingShipment()
	shipment.Status = model.StatusInTransit

	patch, err := machine.ConfirmReceipt(shipment, nil)
	if err != nil {
		t.Fatalf("confirm receipt: %v", err)
	}
	if patch["status"] != string(model.StatusDelivered) {
		t.Fatalf("expected Delivered status, got %v", patch["status"])
	}
	if patch["deliveredDate"] != testStamp {
		t.Fatalf("expected deliveredDate %q, got %v", testStamp, patch["deliveredDate"])
	}
	if _, ok := patch["shippedDate"]; ok {
		t.Fatalf("confirm receipt must not touch shippedDate: %v", patch)
	}
}

func TestTransitionsAreLinear(t *testing.T) {
	machine := NewMachine(WithClock(testClock))

	tests := []struct {
		name   string
		action Action
		status model.ShipmentStatus
		valid  bool
	}{
		{name: "ship out from pending", action: ActionShipOut, status: model.StatusPending, valid: true},
		{name: "ship out from in transit rejected", action: ActionShipOut, status: model.StatusInTransit, valid: false},
		{name: "ship out from delivered rejected", action: ActionShipOut, status: model.StatusDelivered, valid: false},
		{name: "confirm receipt from pending rejected", action: ActionConfirmReceipt, status: model.StatusPending, valid: false},
		{name: "confirm receipt from in transit", action: ActionConfirmReceipt, status: model.StatusInTransit, valid: true},
		{name: "confirm receipt from delivered rejected", action: ActionConfirmReceipt, status: model.StatusDelivered, valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shipment := pendingShipment()
			shipment.Status = tc.status
			patch, err := machine.Apply(tc.action, shipment, nil)
			if tc.valid {
				if err != nil {
					t.Fatalf("expected valid transition, got %v", err)
				}
				return
			}
			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidTransitionError, got %v", err)
			}
			if invalid.Action != tc.action || invalid.From != tc.status {
				t.Fatalf("unexpected rejection detail %+v", invalid)
			}
			if patch != nil {
				t.Fatalf("rejected transition must not produce a patch: %v", patch)
			}
		})
	}
}

func TestTransitionsNotIdempotent(t *testing.T) {
	machine := NewMachine(WithClock(testClock))
	shipment := pendingShipment()

	if _, err := machine.ShipOut(shipment, nil); err != nil {
		t.Fatalf("first ship out: %v", err)
	}
	// Simulate the applied transition, then re-invoke it.
	shipment.Status = model.StatusInTransit
	if _, err := machine.ShipOut(shipment, nil); err == nil {
		t.Fatalf("re-invoking an applied transition must be rejected, not silently accepted")
	}
}

func TestApplyUnknownAction(t *testing.T) {
	machine := NewMachine()
	if _, err := machine.Apply(Action("teleport"), pendingShipment(), nil); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestCan(t *testing.T) {
	machine := NewMachine()
	shipment := pendingShipment()

	if !machine.Can(ActionShipOut, shipment, nil) {
		t.Fatalf("pending shipment should allow ship out")
	}
	if machine.Can(ActionConfirmReceipt, shipment, nil) {
		t.Fatalf("pending shipment must not allow confirm receipt")
	}

	shipment.Status = model.StatusInTransit
	if !machine.Can(ActionConfirmReceipt, shipment, nil) {
		t.Fatalf("in-transit shipment should allow confirm receipt")
	}
	if machine.Can(ActionShipOut, shipment, nil) {
		t.Fatalf("in-transit shipment must not allow ship out")
	}
}
