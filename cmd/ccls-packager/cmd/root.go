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
	"github.com/MaskRay/vscode-ccls/internal/service/packager"
	"github.com/MaskRay/vscode-ccls/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// outputPath overrides the configured artifact location.
	outputPath string
	// writeManifest also emits the toolkit release manifest.
	writeManifest bool
	// logLevel sets the minimum level for diagnostic output.
	logLevel string

	// rootCmd represents the base command for packaging the extension.
	rootCmd = &cobra.Command{
		Use:   "ccls-packager",
		Short: "Package the ccls extension into a .vsix archive",
		Long: `Build the distributable extension archive by invoking vsce from the
local npm tool directory. The process exit code is exactly the exit code
of vsce, and its output streams through untouched.`,
		Args: cobra.NoArgs,
		// Failures of the external tool are not usage errors.
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

			options := &packager.Options{
				ConfigPath:    configPath,
				OutputPath:    outputPath,
				WriteManifest: writeManifest,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the ccls-packager CLI and exits with the packaging tool's exit code on failure.
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
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "override the artifact output path")
	rootCmd.Flags().BoolVar(&writeManifest, "manifest", false, "also write the toolkit release manifest")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug|info|warn|error)")
}
