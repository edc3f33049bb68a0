package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"torrentstream/streamaddon/internal/domain"
)

var streamsCMD = &cobra.Command{
	Use:   "streams",
	Short: "streams",
	Long:  `print the stream list the add-on would answer for a title`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, id, err := titleFlags(cmd)
		if err != nil {
			return err
		}
		components, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		resp, err := components.Engine.Streams(cmd.Context(), kind, id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var recordsCMD = &cobra.Command{
	Use:   "records",
	Short: "records",
	Long:  `print the ranked search records for a title without resolving them`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, id, err := titleFlags(cmd)
		if err != nil {
			return err
		}
		components, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer components.Close()

		records, err := components.Engine.Records(cmd.Context(), kind, id, func(batch []domain.Record) {
			logger.Debug("partial results", slog.Int("records", len(batch)))
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), records)
	},
}

func titleFlags(cmd *cobra.Command) (domain.MediaKind, string, error) {
	rawKind, _ := cmd.Flags().GetString("type")
	id, _ := cmd.Flags().GetString("id")
	if id == "" {
		return "", "", fmt.Errorf("--id is required")
	}
	switch domain.MediaKind(rawKind) {
	case domain.MediaKindMovie, domain.MediaKindSeries:
		return domain.MediaKind(rawKind), id, nil
	default:
		return "", "", fmt.Errorf("unsupported --type %q", rawKind)
	}
}

func init() {
	for _, c := range []*cobra.Command{streamsCMD, recordsCMD} {
		c.Flags().String("type", "movie", "`movie/series`")
		c.Flags().String("id", "", "title id, like `tt0133093` or `tt0944947:1:2`")
		rootCMD.AddCommand(c)
	}
}
