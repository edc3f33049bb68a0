package main

import (
	"github.com/spf13/cobra"
)

var indexersCMD = &cobra.Command{
	Use:   "indexers",
	Short: "indexers",
	Long:  `list the indexers configured on the Jackett instance`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		components, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		endpoints, err := components.Jackett.ListEndpoints(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), endpoints)
	},
}

func init() {
	rootCMD.AddCommand(indexersCMD)
}
