// Command ethspecify keeps specification excerpts embedded in
// documentation files up to date and checks reference coverage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information, set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionString() string {
	return fmt.Sprintf("ethspecify %s (commit %s, built %s)", version, commit, date)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ethspecify",
		Short: "Embed and verify specification excerpts in documentation",
		Long: `ethspecify maintains <spec> tags in documentation files. It resolves
each tag against the published specification index, rewrites the tag
with fresh content and an integrity hash, and checks that reference
files cover every specification item.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	processCmd := newProcessCmd()
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newListTagsCmd())
	rootCmd.AddCommand(newListForksCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Bare invocation processes the current directory.
	rootCmd.RunE = processCmd.RunE
	rootCmd.Flags().AddFlagSet(processCmd.Flags())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(versionString())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
