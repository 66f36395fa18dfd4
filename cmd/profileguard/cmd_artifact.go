package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bibbank/profileguard/internal/infrastructure/ml"
)

func newArtifactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Work with classifier artifacts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <path>",
		Short: "Validate a classifier artifact and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runArtifactInspect,
	})
	return cmd
}

func runArtifactInspect(cmd *cobra.Command, args []string) error {
	artifact, err := ml.LoadArtifact(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Version:  %s\n", artifact.Version)
	fmt.Fprintf(out, "Kind:     %s\n", artifact.Model.Kind)
	switch artifact.Model.Kind {
	case ml.KindLogistic:
		fmt.Fprintf(out, "Weights:  %d\n", len(artifact.Model.Weights))
	case ml.KindTreeEnsemble:
		fmt.Fprintf(out, "Trees:    %d\n", len(artifact.Model.Trees))
	}
	fmt.Fprintf(out, "Features: %d\n", len(artifact.FeatureNames))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tMEAN\tSCALE")
	for i, name := range artifact.FeatureNames {
		fmt.Fprintf(tw, "  %d\t%s\t%.4f\t%.4f\n", i, name, artifact.Scaler.Mean[i], artifact.Scaler.Scale[i])
	}
	return tw.Flush()
}
