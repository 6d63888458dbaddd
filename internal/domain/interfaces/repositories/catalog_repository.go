// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
)

// CatalogRepository defines the interface for the persisted archive catalog
type CatalogRepository interface {
	// Load reads the whole catalog
	Load(ctx context.Context) (*entities.Catalog, error)

	// Save replaces the persisted catalog
	Save(ctx context.Context, catalog *entities.Catalog) error
}
