// Package model holds the entity snapshots fetched from the ledger.
//
// Entities are immutable per fetch cycle: collections are wholly replaced on
// each refresh, never patched in place.
package model

import (
	"encoding/json"
	"time"
)

// Reference is an id-only pointer to another entity. The ledger may compact a
// reference to a bare IRI string or expand it to an {"id": ...} node, so it
// unmarshals from both forms.
type Reference struct {
	ID string `json:"id"`
}

func (r *Reference) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.ID = s
		return nil
	}
	var node struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return err
	}
	r.ID = node.ID
	return nil
}

func (r Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID string `json:"id"`
	}{ID: r.ID})
}

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "Pending"
	StatusInTransit ShipmentStatus = "In Transit"
	StatusDelivered ShipmentStatus = "Delivered"
)

// LocationType classifies a supply-chain location.
type LocationType string

const (
	LocationFactory         LocationType = "Factory"
	LocationWarehouse       LocationType = "Warehouse"
	LocationDistributionHub LocationType = "Distribution Hub"
	LocationLocalDepot      LocationType = "Local Depot"
)

// UserRole is the acting user's position at their location.
type UserRole string

const (
	RoleFactoryManager      UserRole = "Factory Manager"
	RoleWarehouseSupervisor UserRole = "Warehouse Supervisor"
	RoleShippingClerk       UserRole = "Shipping Clerk"
	RoleRegionalHubManager  UserRole = "Regional Hub Manager"
)

type Location struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type LocationType `json:"type"`
	City string       `json:"city"`
}

type Item struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Size        string `json:"size"`
}

type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     UserRole  `json:"role"`
	Company  string    `json:"company"`
	Location Reference `json:"location"`
}

// Shipment is the only entity whose fields are ever mutated, and then only
// status and the two date fields, exclusively through the update orchestrator.
type Shipment struct {
	ID             string         `json:"id"`
	TrackingNumber string         `json:"trackingNumber"`
	FromLocation   Reference      `json:"fromLocation"`
	ToLocation     Reference      `json:"toLocation"`
	Items          []Reference    `json:"items"`
	InitiatedBy    Reference      `json:"initiatedBy"`
	Status         ShipmentStatus `json:"status"`
	ShippedDate    *time.Time     `json:"shippedDate"`
	DeliveredDate  *time.Time     `json:"deliveredDate"`
}
