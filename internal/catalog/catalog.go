package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/Alp4ka/keyset"
	"github.com/Alp4ka/keyset/internal/config"
	"github.com/sirupsen/logrus"
)

// Catalog serves pages of products and owns the underlying connection.
type Catalog interface {
	// Page returns a *keyset.Page of the store's product type.
	Page(ctx context.Context, req keyset.Request) (any, error)
	// Seed replaces the whole collection with products.
	Seed(ctx context.Context, products []Product) error
	Ping(ctx context.Context) error
	Close() error
}

const _connectTimeout = 10 * time.Second

// Open connects to the configured store and prepares its schema.
func Open(ctx context.Context, store config.Store, paging config.Paging, log logrus.FieldLogger) (Catalog, error) {
	opts := []keyset.Option{
		keyset.WithSortFields(SortFields...),
		keyset.WithFilterSchema(FilterSchema),
		keyset.WithPageSize(paging.PageSize, paging.MaxPageSize),
		keyset.WithLogger(log),
	}

	ctx, cancel := context.WithTimeout(ctx, _connectTimeout)
	defer cancel()

	switch store.Driver {
	case "mongo":
		return openMongo(ctx, store, log, opts...)
	case "sqlite", "postgres", "mysql":
		return openGORM(ctx, store, log, opts...)
	default:
		return nil, fmt.Errorf("unsupported store driver '%s'", store.Driver)
	}
}
