package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibbank/profileguard/internal/infrastructure/tlsutil"
)

func newCertsCmd() *cobra.Command {
	var (
		outDir string
		hosts  []string
	)
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Generate a development CA and server certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundle, err := tlsutil.GenerateDevBundle(outDir, hosts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "CA:     %s\n", bundle.CACert())
			fmt.Fprintf(out, "Server: %s\n", bundle.ServerCert())
			fmt.Fprintf(out, "\nexport TLS_CERT_FILE=%s TLS_KEY_FILE=%s\n", bundle.ServerCert(), bundle.ServerKey())
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "certs", "output directory")
	cmd.Flags().StringSliceVar(&hosts, "host", []string{"localhost", "127.0.0.1"}, "DNS names or IPs for the server certificate")
	return cmd
}
