package repository

import (
	"context"
	"strings"
)

type StoreOptions struct {
	DatabaseURL   string
	Dynamo        DynamoDBAPI
	TableName     string
	CustomerIndex string
	SeedFile      string
}

// NewStore picks Postgres when a database URL is set, DynamoDB when a table is
// configured, and otherwise an in-memory store seeded from SeedFile or the demo set.
func NewStore(ctx context.Context, opts StoreOptions) (Store, error) {
	if strings.TrimSpace(opts.DatabaseURL) != "" {
		return NewPostgresStore(ctx, opts.DatabaseURL)
	}
	if strings.TrimSpace(opts.TableName) != "" && opts.Dynamo != nil {
		return NewDynamoStore(opts.Dynamo, opts.TableName, opts.CustomerIndex)
	}
	if strings.TrimSpace(opts.SeedFile) != "" {
		seed, err := LoadSeedFile(opts.SeedFile)
		if err != nil {
			return nil, err
		}
		return NewMemoryStore(seed...), nil
	}
	return NewMemoryStore(DemoShipments()...), nil
}
