// Command adm is the operator CLI for the translator service: artifact
// cleanup, model warm-up and ad-hoc language detection.
package main

import (
	"context"
	"fmt"
	"os"

	"translatorapp/internal/config"
	"translatorapp/internal/di"
	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	"translatorapp/internal/version"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "adm",
		Short:        "Administrative tooling for the translator service",
		Version:      fmt.Sprintf("%s (%s)", version.Version, version.Commit),
		SilenceUsage: true,
	}

	root.AddCommand(newCleanupCmd())
	root.AddCommand(newWarmCmd())
	root.AddCommand(newDetectCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads config and builds an initialized service container.
func bootstrap(ctx context.Context) (*di.ServiceContainer, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	// The CLI logs to stdout only; OTLP export stays off.
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "")
	if err != nil {
		return nil, err
	}

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		return nil, err
	}
	return container, nil
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove translated artifacts past their retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = container.Shutdown(cmd.Context()) }()

			removed := container.GetCleanupService().RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired files\n", removed)
			return nil
		},
	}
}

func newWarmCmd() *cobra.Command {
	var languages []string

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Pre-load translation models so first requests are fast",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = container.Shutdown(cmd.Context()) }()

			cfg := container.GetConfig()
			if len(languages) == 0 {
				languages = cfg.SupportedLanguages()
			}

			cache := container.GetModelCache()
			for _, lang := range languages {
				pair := models.LanguagePair{Source: lang, Target: cfg.Translation.TargetLanguage}
				capability, err := cache.Acquire(cmd.Context(), pair)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", pair.Normalized(), capability.Kind())
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "source languages to warm (default: all configured)")
	return cmd
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text]",
		Short: "Detect the language of a text sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = container.Shutdown(cmd.Context()) }()

			resp, err := container.GetDetector().Detect(cmd.Context(), serviceinterfaces.DetectRequest{Text: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "language: %s confidence: %.2f\n", resp.Language, resp.Confidence)
			return nil
		},
	}
}
