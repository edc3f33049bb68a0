package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"torrentstream/streamaddon/internal/app"
)

var rootCMD = &cobra.Command{
	Use:          "addonctl",
	Short:        "addonctl",
	Long:         `query the configured Jackett instance the same way the add-on does`,
	SilenceUsage: true,
}

func init() {
	rootCMD.PersistentFlags().String("log-level", "", "`debug/info/warn/error`, overrides LOG_LEVEL")
}

// setup loads the environment config and builds the same components the
// HTTP server uses. Logs go to stderr so stdout stays machine readable.
func setup(cmd *cobra.Command) (app.Components, *slog.Logger, error) {
	cfg := app.LoadConfig()
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := cfg.Validate(); err != nil {
		return app.Components{}, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: app.ParseLogLevel(cfg.LogLevel)}))
	return app.BuildComponents(cfg, logger), logger, nil
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
