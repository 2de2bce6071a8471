// Package repository holds read-only adapters for the shipment store.
package repository

import (
	"context"

	"github.com/google/uuid"

	"cargo-chat/internal/domain"
)

// Store is the shipment read model consumed by grounding.
type Store interface {
	ListByCustomer(ctx context.Context, customerID string, page domain.PageRequest) (domain.Page[domain.Shipment], error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)
	Close() error
}
