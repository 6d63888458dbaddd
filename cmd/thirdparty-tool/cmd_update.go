package main

import (
	"github.com/spf13/cobra"

	"github.com/yugabyte/thirdparty-tool/internal/config"
	orchestrators "github.com/yugabyte/thirdparty-tool/internal/domain-orchestrators"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
	"github.com/yugabyte/thirdparty-tool/internal/external-adapters/yaml"
)

func (a *app) runUpdate(cmd *cobra.Command, opts *options, cfg *config.Config, logger interfaces.Logger) error {
	token, err := cfg.GitHubTokenFrom(opts.githubTokenFile)
	if err != nil {
		return err
	}
	if token == "" {
		logger.Warn("No GitHub token, API requests are limited to 60 per hour")
	}

	ybVersion := opts.ybVersion
	if ybVersion == "" {
		if ybVersion, err = cfg.YBVersion(); err != nil {
			return err
		}
	}

	orchestrator := orchestrators.NewUpdateOrchestrator(
		a.newProvider(token, logger),
		yaml.NewCatalogRepository(opts.catalogPath),
		logger,
	)
	_, err = orchestrator.Update(cmd.Context(), orchestrators.UpdateOptions{
		TagFilterRegex:     opts.tagFilterRegex,
		AlsoUseCommits:     opts.alsoUseCommits,
		OverrideDefaultSHA: opts.overrideDefaultSHA,
		YBVersion:          ybVersion,
	})
	return err
}
