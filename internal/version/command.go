package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand adds the `version` subcommand shared by the
// toolkit binaries. Every binary must expose it: ccls-updater shells out
// to `ccls-publisher version` to detect the installed toolkit version.
func AttachCobraVersionCommand(root *cobra.Command) {
	// Subcommand: `version`.
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print toolkit version information.",
		Long: `Print the toolkit version together with the git commit and build timestamp
injected at release time. ccls-updater runs this subcommand on installed
binaries and compares the reported version against the release manifest.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Full())
		},
	})
}
