package domain

import (
	"time"

	"github.com/google/uuid"
)

type ShipmentStatus string

const (
	StatusWaitingForApproval ShipmentStatus = "WaitingForApproval"
	StatusApproved           ShipmentStatus = "Approved"
	StatusDenied             ShipmentStatus = "Denied"
	StatusAssigned           ShipmentStatus = "Assigned"
	StatusInTransit          ShipmentStatus = "InTransit"
	StatusDelivered          ShipmentStatus = "Delivered"
	StatusCancelled          ShipmentStatus = "Cancelled"
)

// Party is one end of a shipment route.
type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Planet  string `json:"planet"`
	Station string `json:"station"`
}

// Shipment is the read model consumed from the shipment service.
type Shipment struct {
	ID           uuid.UUID      `json:"id"`
	CustomerID   string         `json:"customerId"`
	Status       ShipmentStatus `json:"status"`
	Sender       Party          `json:"sender"`
	Receiver     Party          `json:"receiver"`
	Category     string         `json:"category"`
	Weight       float64        `json:"weight"`
	Priority     string         `json:"priority"`
	HasInsurance bool           `json:"hasInsurance"`
	Description  string         `json:"description"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// PageRequest selects a 1-based page of results.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps the request to a valid first page and size.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	return p
}

// Offset returns the number of items preceding the requested page.
func (p PageRequest) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// Page is one slice of a paginated result, newest first for shipments.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalCount int
}
