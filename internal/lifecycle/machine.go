// Package lifecycle enforces the shipment state machine:
// Pending → In Transit → Delivered, linear, no back-transitions, no skipping.
//
// Transitions compute the patch to apply; they never talk to the store.
// Invalid transitions are rejected before any network round-trip, and
// re-invoking an applied transition is an error, not a silent success.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/shipledger/shipledger/internal/model"
)

// Action names one lifecycle transition.
type Action string

const (
	ActionShipOut        Action = "ship_out"
	ActionConfirmReceipt Action = "confirm_receipt"
)

// Patch is the field set a transition produces. Values absent from the patch
// leave the corresponding remote field untouched.
type Patch map[string]any

// InvalidTransitionError reports a transition requested from a state that
// does not permit it.
type InvalidTransitionError struct {
	Action Action
	From   model.ShipmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("lifecycle: %s not valid from status %q", e.Action, e.From)
}

// Machine applies lifecycle transitions under an eligibility policy.
type Machine struct {
	guard GuardPolicy
	now   func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithGuard replaces the default allow-all eligibility policy.
func WithGuard(g GuardPolicy) Option {
	return func(m *Machine) {
		if g != nil {
			m.guard = g
		}
	}
}

// WithClock replaces the transition timestamp source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		guard: AllowAll,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ShipOut moves a pending shipment into transit, stamping shippedDate.
func (m *Machine) ShipOut(s model.Shipment, actor *model.User) (Patch, error) {
	if s.Status != model.StatusPending {
		return nil, &InvalidTransitionError{Action: ActionShipOut, From: s.Status}
	}
	if err := m.guard(ActionShipOut, s, actor); err != nil {
		return nil, err
	}
	return Patch{
		"status":      string(model.StatusInTransit),
		"shippedDate": m.stamp(),
	}, nil
}

// ConfirmReceipt moves an in-transit shipment to delivered, stamping
// deliveredDate.
func (m *Machine) ConfirmReceipt(s model.Shipment, actor *model.User) (Patch, error) {
	if s.Status != model.StatusInTransit {
		return nil, &InvalidTransitionError{Action: ActionConfirmReceipt, From: s.Status}
	}
	if err := m.guard(ActionConfirmReceipt, s, actor); err != nil {
		return nil, err
	}
	return Patch{
		"status":        string(model.StatusDelivered),
		"deliveredDate": m.stamp(),
	}, nil
}

// Apply dispatches a named action.
func (m *Machine) Apply(action Action, s model.Shipment, actor *model.User) (Patch, error) {
	switch action {
	case ActionShipOut:
		return m.ShipOut(s, actor)
	case ActionConfirmReceipt:
		return m.ConfirmReceipt(s, actor)
	default:
		return nil, fmt.Errorf("lifecycle: unknown action %q", action)
	}
}

// Can reports whether the action would be accepted for this shipment and
// actor. Used by the serving layer to label available actions.
func (m *Machine) Can(action Action, s model.Shipment, actor *model.User) bool {
	switch action {
	case ActionShipOut:
		if s.Status != model.StatusPending {
			return false
		}
	case ActionConfirmReceipt:
		if s.Status != model.StatusInTransit {
			return false
		}
	default:
		return false
	}
	return m.guard(action, s, actor) == nil
}

func (m *Machine) stamp() string {
	return m.now().UTC().Format(time.RFC3339)
}
