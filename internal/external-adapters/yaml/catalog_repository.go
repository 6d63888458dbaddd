package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces/gateways"
)

// CatalogRepository implements repositories.CatalogRepository on a single YAML file
type CatalogRepository struct {
	path          string
	signaturePath string
	verifier      gateways.SignatureVerifier
	parser        *CatalogParser
}

// RepositoryOption configures a CatalogRepository
type RepositoryOption func(*CatalogRepository)

// WithSignatureVerifier makes Load check a detached signature first.
// An empty sigPath means "<catalog>.asc".
func WithSignatureVerifier(verifier gateways.SignatureVerifier, sigPath string) RepositoryOption {
	return func(r *CatalogRepository) {
		r.verifier = verifier
		r.signaturePath = sigPath
	}
}

// NewCatalogRepository creates a new YAML-based catalog repository
func NewCatalogRepository(path string, opts ...RepositoryOption) *CatalogRepository {
	r := &CatalogRepository{
		path:   path,
		parser: NewCatalogParser(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.verifier != nil && r.signaturePath == "" {
		r.signaturePath = path + ".asc"
	}
	return r
}

// Load reads and validates the catalog
func (r *CatalogRepository) Load(ctx context.Context) (*entities.Catalog, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog not found: %s", r.path)
	}

	if r.verifier != nil {
		if err := r.verifier.VerifyDetachedSignature(ctx, r.path, r.signaturePath); err != nil {
			return nil, fmt.Errorf("failed to verify catalog: %w", err)
		}
	}

	catalog, err := r.parser.ParseFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", r.path, err)
	}
	return catalog, nil
}

// Save writes the catalog atomically through a temporary file in the same directory
func (r *CatalogRepository) Save(ctx context.Context, catalog *entities.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := r.parser.Render(catalog)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: catalog lives in the source tree
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	//nolint:errcheck // Removing a renamed file fails harmlessly
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // G302: catalog is checked into the source tree
		return fmt.Errorf("failed to set catalog permissions: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("failed to replace catalog %s: %w", r.path, err)
	}
	return nil
}
