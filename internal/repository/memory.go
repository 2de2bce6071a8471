package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cargo-chat/internal/domain"
)

// MemoryStore is an in-process shipment store for local development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]domain.Shipment
	// newest first per customer
	byCustomer map[string][]uuid.UUID
}

func NewMemoryStore(seed ...domain.Shipment) *MemoryStore {
	s := &MemoryStore{
		byID:       make(map[uuid.UUID]domain.Shipment, len(seed)),
		byCustomer: make(map[string][]uuid.UUID),
	}
	for _, sh := range seed {
		s.put(sh)
	}
	return s
}

func (s *MemoryStore) put(sh domain.Shipment) {
	if sh.ID == uuid.Nil {
		sh.ID = uuid.New()
	}
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = time.Now().UTC()
	}
	if old, ok := s.byID[sh.ID]; ok {
		s.byCustomer[old.CustomerID] = removeID(s.byCustomer[old.CustomerID], sh.ID)
	}
	s.byID[sh.ID] = sh

	ids := append(s.byCustomer[sh.CustomerID], sh.ID)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.byID[ids[i]].CreatedAt.After(s.byID[ids[j]].CreatedAt)
	})
	s.byCustomer[sh.CustomerID] = ids
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &sh, nil
}

func (s *MemoryStore) ListByCustomer(_ context.Context, customerID string, page domain.PageRequest) (domain.Page[domain.Shipment], error) {
	page = page.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byCustomer[customerID]
	out := domain.Page[domain.Shipment]{
		Items:      make([]domain.Shipment, 0, page.PageSize),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: len(ids),
	}
	for i := page.Offset(); i < len(ids) && len(out.Items) < page.PageSize; i++ {
		out.Items = append(out.Items, s.byID[ids[i]])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// LoadSeedFile reads a JSON array of shipments.
func LoadSeedFile(path string) ([]domain.Shipment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("repository: read seed file: %w", err)
	}
	var out []domain.Shipment
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("repository: decode seed file: %w", err)
	}
	return out, nil
}

// DemoCustomerID owns the built-in demo shipments.
const DemoCustomerID = "demo-customer"

// DemoShipments is the default seed for a local server without a database.
func DemoShipments() []domain.Shipment {
	base := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return []domain.Shipment{
		{
			ID:           uuid.MustParse("5b1c3f0e-8a61-4f7e-9a43-0c6f1d2e7a10"),
			CustomerID:   DemoCustomerID,
			Status:       domain.StatusInTransit,
			Sender:       domain.Party{Name: "Wanda Wonka", Email: "wanda@chocolate.space", Planet: "Mars", Station: "Olympus Dock"},
			Receiver:     domain.Party{Name: "Zorg Blip", Email: "zorg@jupiter.space", Planet: "Jupiter", Station: "Europa Ring"},
			Category:     "Kryddor",
			Weight:       42.5,
			Priority:     "High",
			HasInsurance: true,
			Description:  "Saffran från Valles Marineris",
			CreatedAt:    base.Add(48 * time.Hour),
		},
		{
			ID:          uuid.MustParse("9e2d4a7b-1c3f-4b8e-8d21-6a5f0b9c3e42"),
			CustomerID:  DemoCustomerID,
			Status:      domain.StatusDelivered,
			Sender:      domain.Party{Name: "Wanda Wonka", Email: "wanda@chocolate.space", Planet: "Mars", Station: "Olympus Dock"},
			Receiver:    domain.Party{Name: "Lina Ljus", Email: "lina@venus.space", Planet: "Venus", Station: "Cloud Nine"},
			Category:    "Reservdelar",
			Weight:      120,
			Priority:    "Normal",
			Description: "Motordelar till molnfarm",
			CreatedAt:   base,
		},
	}
}
