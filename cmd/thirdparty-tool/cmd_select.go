package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
	"github.com/yugabyte/thirdparty-tool/internal/domain/services"
)

func (a *app) loadCatalog(cmd *cobra.Command, opts *options) (*entities.Catalog, error) {
	repo, err := a.catalogRepository(opts)
	if err != nil {
		return nil, err
	}
	return repo.Load(cmd.Context())
}

func (a *app) runListCompilers(cmd *cobra.Command, opts *options, logger interfaces.Logger) error {
	catalog, err := a.loadCatalog(cmd, opts)
	if err != nil {
		return err
	}

	compilers, err := services.NewSelector(a.detector, logger).ListCompilers(catalog.Archives, opts.criteria())
	if err != nil {
		return err
	}
	for _, c := range compilers {
		fmt.Fprintln(a.stdout, c)
	}
	return nil
}

func (a *app) runGetSHA1(cmd *cobra.Command, opts *options) error {
	catalog, err := a.loadCatalog(cmd, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, catalog.SHA)
	return nil
}

func (a *app) runSelect(cmd *cobra.Command, opts *options, logger interfaces.Logger) error {
	if opts.compilerType == "" {
		return fmt.Errorf("compiler type is required: use --compiler-type or set YB_COMPILER_TYPE")
	}

	catalog, err := a.loadCatalog(cmd, opts)
	if err != nil {
		return err
	}

	archive, err := services.NewSelector(a.detector, logger).SelectArchive(catalog.Archives, opts.criteria())
	if err != nil {
		return err
	}

	url := archive.URL()
	if url == "" {
		return fmt.Errorf("archive has no tag, cannot determine its download URL: %s", archive)
	}

	if opts.saveURLToFile == "" {
		fmt.Fprintln(a.stdout, url)
		return nil
	}

	//nolint:gosec // G306: URL file is read by the build scripts
	if err := os.WriteFile(opts.saveURLToFile, []byte(strings.TrimSpace(url)), 0o644); err != nil {
		return fmt.Errorf("failed to save third-party URL: %w", err)
	}
	logger.Info("Saved third-party archive URL",
		interfaces.F("url", url), interfaces.F("file", opts.saveURLToFile))
	return nil
}
