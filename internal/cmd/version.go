package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askiada/go-fba/pkg/pipeline/config"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "fba %s (config version %d)\n", Version, config.Version)

			return err
		},
	}
}
