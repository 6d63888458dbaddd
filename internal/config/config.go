// Package config resolves tool settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment variables read by the tool
const (
	EnvCompilerType    = "YB_COMPILER_TYPE"
	EnvGitHubTokenFile = "YB_GITHUB_TOKEN_FILE_PATH"
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvCatalogPath     = "YB_THIRDPARTY_CATALOG"
	EnvVersionFile     = "YB_VERSION_FILE"
)

// Defaults relative to the YugabyteDB source root
const (
	DefaultCatalogPath = "build-support/thirdparty_archives.yml"
	DefaultVersionFile = "version.txt"
)

// Config holds the settings that flags fall back to
type Config struct {
	CompilerType    string `mapstructure:"compiler_type"`
	GitHubTokenFile string `mapstructure:"github_token_file"`
	GitHubToken     string `mapstructure:"github_token"`
	CatalogPath     string `mapstructure:"catalog"`
	VersionFile     string `mapstructure:"version_file"`
}

// Load reads the configuration from the environment
func Load(ctx context.Context) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	v.SetDefault("compiler_type", "")
	v.SetDefault("github_token_file", "")
	v.SetDefault("github_token", "")
	v.SetDefault("catalog", DefaultCatalogPath)
	v.SetDefault("version_file", DefaultVersionFile)

	bindings := map[string]string{
		"compiler_type":     EnvCompilerType,
		"github_token_file": EnvGitHubTokenFile,
		"github_token":      EnvGitHubToken,
		"catalog":           EnvCatalogPath,
		"version_file":      EnvVersionFile,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// GitHubTokenFrom returns the token stored in tokenFile, or the GITHUB_TOKEN value when
// no file is given. An empty result means anonymous access.
func (c *Config) GitHubTokenFrom(tokenFile string) (string, error) {
	if tokenFile == "" {
		return strings.TrimSpace(c.GitHubToken), nil
	}

	//nolint:gosec // G304: tokenFile is user-provided
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read GitHub token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("GitHub token file %s is empty", tokenFile)
	}
	return token, nil
}

// YBVersion returns the contents of the version file, or "" if it does not exist
func (c *Config) YBVersion() (string, error) {
	data, err := os.ReadFile(c.VersionFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read version file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
