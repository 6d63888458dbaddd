package main

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yugabyte/thirdparty-tool/internal/config"
	domaingateways "github.com/yugabyte/thirdparty-tool/internal/domain-adapters/gateways"
	"github.com/yugabyte/thirdparty-tool/internal/domain-adapters/platform"
	"github.com/yugabyte/thirdparty-tool/internal/domain/entities"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces"
	"github.com/yugabyte/thirdparty-tool/internal/domain/interfaces/gateways"
	"github.com/yugabyte/thirdparty-tool/internal/domain/services"
	"github.com/yugabyte/thirdparty-tool/internal/external-adapters/charmlog"
	"github.com/yugabyte/thirdparty-tool/internal/external-adapters/yaml"
)

// errNoAction is returned after printing help when the tool runs without arguments
var errNoAction = errors.New("no action specified")

var (
	shaRe       = regexp.MustCompile(`^[0-9a-f]{40}$`)
	shaPrefixRe = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
)

// app holds the process-wide collaborators, replaced in tests
type app struct {
	stdout      io.Writer
	stderr      io.Writer
	detector    services.PlatformDetector
	newProvider func(token string, logger interfaces.Logger) gateways.ReleaseProvider
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		detector: platform.NewDetector(),
		newProvider: func(token string, logger interfaces.Logger) gateways.ReleaseProvider {
			return domaingateways.NewHTTPGitHubGateway(token, domaingateways.WithLogger(logger))
		},
	}
}

// options mirrors the command line flags
type options struct {
	listCompilers      bool
	getSHA1            bool
	saveURLToFile      string
	update             bool
	compilerType       string
	osType             string
	architecture       string
	isLinuxbrew        string
	lto                string
	allowOlderOS       bool
	githubTokenFile    string
	tagFilterRegex     string
	alsoUseCommits     []string
	overrideDefaultSHA string
	ybVersion          string
	catalogPath        string
	catalogKeyring     string
	catalogSignature   string
	verbose            bool
}

func newRootCommand(a *app) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "thirdparty-tool",
		Short: "Find or update prebuilt YugabyteDB third-party dependency archives",
		Long: `Selects the prebuilt third-party dependency archive matching a compiler, OS and
architecture from the archive catalog, or refreshes the catalog from the GitHub
releases of yugabyte/yugabyte-db-thirdparty.`,
		Example: `  thirdparty-tool --list-compilers
  thirdparty-tool --compiler-type clang17 --save-thirdparty-url-to-file build/thirdparty_url.txt
  thirdparty-tool --get-sha1
  thirdparty-tool --update --github-token-file ~/.github-token`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().NFlag() == 0 {
				cmd.SetOut(a.stderr)
				if err := cmd.Help(); err != nil {
					return err
				}
				return errNoAction
			}
			return a.run(cmd, opts)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	f := cmd.Flags()
	f.BoolVar(&opts.listCompilers, "list-compilers", false, "List compiler types available for the given OS and architecture")
	f.BoolVar(&opts.getSHA1, "get-sha1", false,
		"Show the SHA1 of the yugabyte-db-thirdparty commit to use when building dependencies from scratch")
	f.StringVar(&opts.saveURLToFile, "save-thirdparty-url-to-file", "",
		"Write the download URL of the matching archive to this file")
	f.BoolVarP(&opts.update, "update", "u", false, "Update the third-party archive catalog from GitHub releases")
	f.StringVar(&opts.compilerType, "compiler-type", "",
		"Compiler type (default from "+config.EnvCompilerType+")")
	f.StringVar(&opts.osType, "os-type", "", "Operating system type (default: detected)")
	f.StringVar(&opts.architecture, "architecture", "", "Machine architecture (default: detected)")
	f.StringVar(&opts.isLinuxbrew, "is-linuxbrew", "", "Whether the archive should be based on Linuxbrew (true/false)")
	f.StringVar(&opts.lto, "lto", "", "Link-time optimization type: "+strings.Join(entities.LTOTypes, ", "))
	f.BoolVar(&opts.allowOlderOS, "allow-older-os", false,
		"Allow archives built for the preferred older OS ("+services.PreferredOSType+")")
	f.StringVar(&opts.githubTokenFile, "github-token-file", "",
		"Read the GitHub token from this file (default from "+config.EnvGitHubTokenFile+", else "+config.EnvGitHubToken+")")
	f.StringVar(&opts.tagFilterRegex, "tag-filter-regex", "", "Only look at tags matching this regular expression")
	f.StringSliceVar(&opts.alsoUseCommits, "also-use-commit", nil,
		"Also include releases of these yugabyte-db-thirdparty commits (repeatable, used with --update)")
	f.StringVar(&opts.overrideDefaultSHA, "override-default-sha", "", "Use this SHA at the top of the generated catalog")
	f.StringVar(&opts.ybVersion, "yb-version", "",
		"Only use branch-specific releases matching this YugabyteDB version (default from "+config.EnvVersionFile+")")
	f.StringVar(&opts.catalogPath, "catalog", "", "Archive catalog file (default from "+config.EnvCatalogPath+")")
	f.StringVar(&opts.catalogKeyring, "catalog-keyring", "", "Verify the catalog signature against this OpenPGP keyring")
	f.StringVar(&opts.catalogSignature, "catalog-signature", "", "Detached catalog signature (default: <catalog>.asc)")
	f.BoolVar(&opts.verbose, "verbose", false, "Verbose debug information")

	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if opts.compilerType == "" {
		opts.compilerType = cfg.CompilerType
	}
	if opts.githubTokenFile == "" {
		opts.githubTokenFile = cfg.GitHubTokenFile
	}
	if opts.catalogPath == "" {
		opts.catalogPath = cfg.CatalogPath
	}

	if err := opts.validate(); err != nil {
		return err
	}

	logger := charmlog.New(a.stderr, opts.verbose)

	switch {
	case opts.update:
		return a.runUpdate(cmd, opts, cfg, logger)
	case opts.listCompilers:
		return a.runListCompilers(cmd, opts, logger)
	case opts.getSHA1:
		return a.runGetSHA1(cmd, opts)
	default:
		return a.runSelect(cmd, opts, logger)
	}
}

func (o *options) validate() error {
	if o.lto != "" && !slices.Contains(entities.LTOTypes, o.lto) {
		return fmt.Errorf("invalid --lto value %q, expected one of: %s", o.lto, strings.Join(entities.LTOTypes, ", "))
	}
	if o.isLinuxbrew != "" {
		if _, err := strconv.ParseBool(o.isLinuxbrew); err != nil {
			return fmt.Errorf("invalid --is-linuxbrew value %q: %w", o.isLinuxbrew, err)
		}
	}
	for _, c := range o.alsoUseCommits {
		if !shaPrefixRe.MatchString(c) {
			return fmt.Errorf("invalid --also-use-commit value %q, expected a hexadecimal commit SHA", c)
		}
	}
	if o.overrideDefaultSHA != "" && !shaRe.MatchString(o.overrideDefaultSHA) {
		return fmt.Errorf("invalid --override-default-sha value %q, expected a 40-character commit SHA", o.overrideDefaultSHA)
	}
	return nil
}

// criteria converts the selection flags
func (o *options) criteria() entities.SelectionCriteria {
	c := entities.SelectionCriteria{
		CompilerType: o.compilerType,
		OSType:       services.AdjustOSType(o.osType),
		Architecture: o.architecture,
		LTOType:      o.lto,
		AllowOlderOS: o.allowOlderOS,
	}
	if o.isLinuxbrew != "" {
		// validated in validate()
		b, _ := strconv.ParseBool(o.isLinuxbrew)
		c.IsLinuxbrew = entities.BoolPtr(b)
	}
	return c
}

// catalogRepository opens the catalog, checking its signature when a keyring is configured
func (a *app) catalogRepository(opts *options) (*yaml.CatalogRepository, error) {
	if opts.catalogKeyring == "" {
		return yaml.NewCatalogRepository(opts.catalogPath), nil
	}
	verifier, err := domaingateways.NewGPGVerifier(opts.catalogKeyring)
	if err != nil {
		return nil, err
	}
	return yaml.NewCatalogRepository(opts.catalogPath,
		yaml.WithSignatureVerifier(verifier, opts.catalogSignature)), nil
}
