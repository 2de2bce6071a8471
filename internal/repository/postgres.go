package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cargo-chat/internal/domain"
)

const shipmentColumns = `id, customer_id, status,
	sender_name, sender_email, sender_planet, sender_station,
	receiver_name, receiver_email, receiver_planet, receiver_station,
	category, weight, priority, has_insurance, description, created_at`

// PostgresStore reads shipments from a table owned by the shipment service.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id=$1`, id)
	sh, _, err := scanShipment(row, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return &sh, nil
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID string, page domain.PageRequest) (domain.Page[domain.Shipment], error) {
	page = page.Normalize()
	rows, err := s.pool.Query(ctx,
		`SELECT `+shipmentColumns+`, count(*) OVER () AS total
		 FROM shipments WHERE customer_id=$1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID,
		page.PageSize,
		page.Offset(),
	)
	if err != nil {
		return domain.Page[domain.Shipment]{}, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	out := domain.Page[domain.Shipment]{
		Items:    make([]domain.Shipment, 0, page.PageSize),
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for rows.Next() {
		sh, total, err := scanShipment(rows, true)
		if err != nil {
			return domain.Page[domain.Shipment]{}, fmt.Errorf("scan shipment row: %w", err)
		}
		out.Items = append(out.Items, sh)
		out.TotalCount = total
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Shipment]{}, fmt.Errorf("iterate shipment rows: %w", err)
	}
	return out, nil
}

func scanShipment(row pgx.Row, withTotal bool) (domain.Shipment, int, error) {
	var (
		sh     domain.Shipment
		status string
		total  int64
	)
	dest := []any{
		&sh.ID, &sh.CustomerID, &status,
		&sh.Sender.Name, &sh.Sender.Email, &sh.Sender.Planet, &sh.Sender.Station,
		&sh.Receiver.Name, &sh.Receiver.Email, &sh.Receiver.Planet, &sh.Receiver.Station,
		&sh.Category, &sh.Weight, &sh.Priority, &sh.HasInsurance, &sh.Description, &sh.CreatedAt,
	}
	if withTotal {
		dest = append(dest, &total)
	}
	if err := row.Scan(dest...); err != nil {
		return domain.Shipment{}, 0, err
	}
	sh.Status = domain.ShipmentStatus(status)
	return sh, int(total), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
