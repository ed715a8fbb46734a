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
	"github.com/MaskRay/vscode-ccls/internal/service/updater"
	"github.com/MaskRay/vscode-ccls/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel sets the minimum level for diagnostic output.
	logLevel string

	// rootCmd represents the base command for updating the toolkit binaries.
	rootCmd = &cobra.Command{
		Use:   "ccls-updater",
		Short: "Download and apply toolkit updates",
		Long: `Fetch the release manifest from the configured update folder, compare it
against the installed toolkit version and file checksums, and replace
outdated binaries in place.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &updater.Options{
				ConfigPath: configPath,
			}

			return updater.Run(ctx, options)
		},
	}
)

// Execute runs the ccls-updater CLI and exits with non-zero status on error.
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
