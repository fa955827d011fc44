package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

const checkTimeout = 30 * time.Second

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in ~/.groundwork/config.toml
($GROUNDWORK_HOME overrides the directory).

API keys are read from OPENAI_API_KEY, OPENROUTER_API_KEY and
ANTHROPIC_API_KEY, or from a .env file in the working directory.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one configuration key",
	Long: `Set one configuration key, for example:

  groundwork config set retrieval.ask_threshold 0.3
  groundwork config set retry.max_attempts 5
  groundwork config set embedding.batch_interval 500ms`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configProviderCmd = &cobra.Command{
	Use:   "provider [openai|openrouter|anthropic] [model]",
	Short: "Select the generation provider",
	Long:  `Select the generation provider. Without a model the provider default is used.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConfigProvider,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and ping both providers",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configProviderCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	printBaseURL(cmd, settings.Embedding.BaseURL)
	cmd.Printf("  API Key: %s\n", keyStatus(settings.Embedding.APIKey))
	cmd.Printf("  Batch: %d every %s\n", settings.Embedding.BatchSize, settings.Embedding.BatchInterval)
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	printBaseURL(cmd, settings.LLM.BaseURL)
	cmd.Printf("  API Key: %s\n", keyStatus(settings.LLM.APIKey))
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Ask threshold: %.2f\n", r.AskThreshold)
	cmd.Printf("  Draft threshold: %.2f\n", r.DraftThreshold)
	cmd.Printf("  Cite threshold: %.2f\n", r.CiteThreshold)
	cmd.Printf("  Ask top-k: %d\n", r.AskTopK)
	cmd.Println()

	rt := settings.Retry
	cmd.Println("[Retry]")
	cmd.Printf("  Max attempts: %d\n", rt.MaxAttempts)
	cmd.Printf("  Backoff: %s to %s\n", rt.InitialInterval, rt.MaxInterval)
	cmd.Printf("  Breaker: opens after %d failures for %s\n", rt.BreakerFailures, rt.BreakerCooldown)
	cmd.Println()

	cmd.Println("[Storage]")
	path := settings.DatabasePath
	if path == "" {
		path = "(default)"
	}
	cmd.Printf("  Database: %s\n", path)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printBaseURL(cmd *cobra.Command, url string) {
	if url != "" {
		cmd.Printf("  Base URL: %s\n", url)
	}
}

func keyStatus(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runConfigProvider(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}
	provider := domain.AIProvider(args[0])
	model := ""
	if len(args) == 2 {
		model = args[1]
	}
	if err := settingsService.SetLLMProvider(provider, model); err != nil {
		return fmt.Errorf("failed to set provider: %w", err)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	cmd.Printf("Generation provider: %s (%s)\n", provider.Description(), model)
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings")
	}
	if err := settingsService.Validate(); err != nil {
		return err
	}
	cmd.Println("Settings: ok")

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	if err := settingsService.ValidateEmbeddingConfig(ctx); err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}
	cmd.Println("Embedding provider: ok")

	if err := settingsService.ValidateLLMConfig(ctx); err != nil {
		return fmt.Errorf("generation provider: %w", err)
	}
	cmd.Println("Generation provider: ok")
	return nil
}

// maskAPIKey shows only the first and last four characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
