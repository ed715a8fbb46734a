package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MaskRay/vscode-ccls/internal/config"
	"github.com/MaskRay/vscode-ccls/internal/logger"
	"github.com/MaskRay/vscode-ccls/internal/service/common"
	"github.com/MaskRay/vscode-ccls/internal/service/publisher"
	"github.com/MaskRay/vscode-ccls/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel sets the minimum level for diagnostic output.
	logLevel string

	// rootCmd represents the base command for cutting a release.
	rootCmd = &cobra.Command{
		Use:   "ccls-publisher [patch|minor|major]",
		Short: "Bump the package version and push the release",
		Long: `Cut a release in two steps: bump the semantic version with npm version,
then push the resulting commit and tag with git push --follow-tags.

The bump kind defaults to patch. Values outside patch|minor|major are
forwarded to npm unchecked; npm version also accepts literal versions.
If the bump fails the process exits 1 and nothing is pushed; if the push
fails its exit code becomes the process exit code. The bump is never
rolled back.`,
		Args: cobra.MaximumNArgs(1),
		// Failures of the external tools are not usage errors.
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use the bump kind argument if provided, otherwise the default applies.
			var bumpKind string
			if len(args) > 0 {
				bumpKind = args[0]
			}

			options := &publisher.Options{
				ConfigPath: configPath,
				BumpKind:   bumpKind,
			}

			return publisher.Run(ctx, options)
		},
	}
)

// Execute runs the ccls-publisher CLI and exits with the failing step's exit code on failure.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(common.ExitCode(err))
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug|info|warn|error)")
}
