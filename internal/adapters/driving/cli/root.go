// Package cli provides the groundwork command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/core/services"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Options are the root flags that affect how services are built.
type Options struct {
	// NoRetry disables retries around model calls.
	NoRetry bool
}

// Services holds the driving ports the commands call.
type Services struct {
	Ingest   driving.IngestService
	Ask      driving.AskService
	Expand   driving.ExpandService
	Cite     driving.CiteService
	Library  driving.LibraryService
	Settings driving.SettingsService

	// Warnings are shown once before the command runs, for example when a
	// provider could not be configured.
	Warnings []string
}

// Bootstrap builds services after flags are parsed. The returned cleanup
// func is called when the command finishes.
type Bootstrap func(opts Options) (*Services, func() error, error)

var (
	ingestService   driving.IngestService
	askService      driving.AskService
	expandService   driving.ExpandService
	citeService     driving.CiteService
	libraryService  driving.LibraryService
	settingsService driving.SettingsService

	bootstrap Bootstrap
	cleanup   func() error

	verbose bool
	noRetry bool
)

var rootCmd = &cobra.Command{
	Use:   "groundwork",
	Short: "Grounded answers and long-form drafts from your own library",
	Long: `groundwork ingests books and papers into a local library and writes
from them: page-cited answers, outline-driven long-form expansions and
footnoted citations for existing drafts.

When the library cannot support a claim it says so ("Not in library.")
instead of guessing.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().BoolVar(&noRetry, "no-retry", false, "fail on the first model error instead of retrying")
}

// SetBootstrap installs the service builder used by every command.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects services directly.
func SetServices(s *Services) {
	ingestService = s.Ingest
	askService = s.Ask
	expandService = s.Expand
	citeService = s.Cite
	libraryService = s.Library
	settingsService = s.Settings
}

// Execute runs the root command and releases whatever setup opened,
// including when the command fails.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := teardown(); err == nil {
		err = cerr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd.Annotations[annotationNoServices] != "" {
		return nil
	}

	svcs, closeFn, err := bootstrap(Options{NoRetry: noRetry})
	if err != nil {
		return err
	}
	SetServices(svcs)
	cleanup = closeFn
	for _, w := range svcs.Warnings {
		logger.Warn("%s", w)
	}
	return nil
}

func teardown() error {
	if cleanup == nil {
		return nil
	}
	err := cleanup()
	cleanup = nil
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// annotationNoServices marks commands that run without building services.
const annotationNoServices = "groundwork/no-services"

var errNotConfigured = errors.New("service not configured")

func notConfigured(name string) error {
	return fmt.Errorf("%s %w", name, errNotConfigured)
}

// requireProviders fails with a credential error before any work starts.
// Generation is only checked when needLLM is set.
func requireProviders(needLLM bool) error {
	if settingsService == nil {
		return nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := services.RequireEmbedding(settings); err != nil {
		return err
	}
	if needLLM {
		return services.RequireLLM(settings)
	}
	return nil
}
