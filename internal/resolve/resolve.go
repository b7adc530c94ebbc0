// Package resolve joins shipment reference fields against the flat
// collections fetched from the ledger.
//
// Resolution is referentially pure: no I/O, no side effects, identical
// inputs produce identical outputs. A reference that points at a missing
// entity resolves to an explicit unresolved marker so the rendering layer
// can show a partial record; it is never an error.
package resolve

import "github.com/shipledger/shipledger/internal/model"

// Resolved carries the outcome of resolving one reference. When OK is false
// the entity is absent from its collection and Entity is the zero value.
type Resolved[T any] struct {
	ID     string `json:"id"`
	OK     bool   `json:"resolved"`
	Entity T      `json:"entity,omitempty"`
}

// Shipment is one shipment with every reference field resolved.
type Shipment struct {
	model.Shipment
	From        Resolved[model.Location] `json:"from"`
	To          Resolved[model.Location] `json:"to"`
	InitiatedBy Resolved[model.User]     `json:"initiatedByUser"`
	Items       []Resolved[model.Item]   `json:"resolvedItems"`
}

// Collections resolves every shipment against the location, item and user
// collections. Each collection is indexed by id once per call, so resolution
// stays linear in the input size.
func Collections(shipments []model.Shipment, locations []model.Location, items []model.Item, users []model.User) []Shipment {
	locIdx := make(map[string]model.Location, len(locations))
	for _, loc := range locations {
		locIdx[loc.ID] = loc
	}
	itemIdx := make(map[string]model.Item, len(items))
	for _, item := range items {
		itemIdx[item.ID] = item
	}
	userIdx := make(map[string]model.User, len(users))
	for _, user := range users {
		userIdx[user.ID] = user
	}

	out := make([]Shipment, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, Shipment{
			Shipment:    s,
			From:        lookup(locIdx, s.FromLocation),
			To:          lookup(locIdx, s.ToLocation),
			InitiatedBy: lookup(userIdx, s.InitiatedBy),
			Items:       lookupItems(itemIdx, s.Items),
		})
	}
	return out
}

// User resolves one actor id against the user collection.
func User(users []model.User, actorID string) (model.User, bool) {
	for _, u := range users {
		if u.ID == actorID {
			return u, true
		}
	}
	return model.User{}, false
}

func lookup[T any](idx map[string]T, ref model.Reference) Resolved[T] {
	entity, ok := idx[ref.ID]
	if !ok {
		return Resolved[T]{ID: ref.ID}
	}
	return Resolved[T]{ID: ref.ID, OK: true, Entity: entity}
}

// lookupItems resolves the item set. Items form a set on the ledger, so
// duplicate references collapse to one logical line item, first occurrence
// order preserved.
func lookupItems(idx map[string]model.Item, refs []model.Reference) []Resolved[model.Item] {
	out := make([]Resolved[model.Item], 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		out = append(out, lookup(idx, ref))
	}
	return out
}
