package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "profileguard",
		Short:         "Fake-account risk scoring for social media profiles",
		Long:          "profileguard scores social media accounts by combining a trained classifier,\ndeterministic risk rules and an optional LLM analysis.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.AddCommand(newScoreCmd())
	root.AddCommand(newArtifactCmd())
	root.AddCommand(newCertsCmd())
	return root
}
