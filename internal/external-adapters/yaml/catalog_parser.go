// Package yaml provides the YAML catalog parser and repository.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlCatalog represents the raw YAML structure
type yamlCatalog struct {
	SHA      string        `yaml:"sha"`
	Archives []yamlArchive `yaml:"archives"`
}

// yamlArchive field order is the order written to disk
type yamlArchive struct {
	OSType       string `yaml:"os_type,omitempty"`
	Architecture string `yaml:"architecture,omitempty"`
	CompilerType string `yaml:"compiler_type,omitempty"`
	IsLinuxbrew  bool   `yaml:"is_linuxbrew,omitempty"`
	SHA          string `yaml:"sha,omitempty"`
	Tag          string `yaml:"tag,omitempty"`
	LTOType      string `yaml:"lto_type,omitempty"`
}

// CatalogParser parses and renders catalog files
type CatalogParser struct{}

// NewCatalogParser creates a new YAML parser
func NewCatalogParser() *CatalogParser {
	return &CatalogParser{}
}

// ParseFile parses a YAML catalog file
func (p *CatalogParser) ParseFile(filePath string) (*entities.Catalog, error) {
	//nolint:gosec // G304: filePath is the configured catalog path
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a Catalog entity. Unknown keys are rejected.
func (p *CatalogParser) Parse(data []byte) (*entities.Catalog, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var raw yamlCatalog
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.SHA == "" {
		return nil, fmt.Errorf("catalog must have a sha")
	}

	catalog := &entities.Catalog{
		SHA:      raw.SHA,
		Archives: make([]entities.ArchiveDescriptor, 0, len(raw.Archives)),
	}
	for i, a := range raw.Archives {
		descriptor := convertArchive(a)
		if err := validateArchive(descriptor); err != nil {
			return nil, fmt.Errorf("invalid archive #%d (%s): %w", i+1, a.Tag, err)
		}
		catalog.Archives = append(catalog.Archives, descriptor)
	}

	return catalog, nil
}

// Render serializes a catalog, omitting fields that hold their default value
func (p *CatalogParser) Render(catalog *entities.Catalog) ([]byte, error) {
	raw := yamlCatalog{
		SHA:      catalog.SHA,
		Archives: make([]yamlArchive, len(catalog.Archives)),
	}
	for i, a := range catalog.Archives {
		raw.Archives[i] = yamlArchive{
			OSType:       a.OSType,
			Architecture: a.Architecture,
			CompilerType: a.CompilerType,
			IsLinuxbrew:  a.IsLinuxbrew,
			SHA:          a.SHA,
			Tag:          a.Tag,
			LTOType:      a.LTOType,
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(raw); err != nil {
		return nil, fmt.Errorf("failed to render YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to render YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func convertArchive(ya yamlArchive) entities.ArchiveDescriptor {
	return entities.ArchiveDescriptor{
		OSType:       ya.OSType,
		Architecture: ya.Architecture,
		CompilerType: ya.CompilerType,
		IsLinuxbrew:  ya.IsLinuxbrew,
		SHA:          ya.SHA,
		LTOType:      ya.LTOType,
		Tag:          ya.Tag,
	}
}

func validateArchive(a entities.ArchiveDescriptor) error {
	if a.OSType == "" {
		return fmt.Errorf("os_type is required")
	}
	if a.CompilerType == "" {
		return fmt.Errorf("compiler_type is required")
	}
	if a.SHA == "" {
		return fmt.Errorf("sha is required")
	}
	// Old tags carry no architecture; such archives load but never match a selection
	if a.Architecture != "" && !slices.Contains(entities.Architectures, a.Architecture) {
		return fmt.Errorf("unsupported architecture %q", a.Architecture)
	}
	if a.LTOType != entities.LTONone && !slices.Contains(entities.LTOTypes, a.LTOType) {
		return fmt.Errorf("unsupported lto_type %q", a.LTOType)
	}
	return nil
}
