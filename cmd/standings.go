package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetiq/courier/config"
	"github.com/fleetiq/courier/infra/coord"
	"github.com/fleetiq/courier/infra/logger"
	"github.com/fleetiq/courier/pkg/export"
)

var standingsCmd = &cobra.Command{
	Use:   "standings",
	Short: "Print the team scoreboard",
	RunE:  runStandings,
}

var standingsFormat string

func init() {
	standingsCmd.Flags().StringVar(&standingsFormat, "format", "table", "output format: table, json or csv")
	rootCmd.AddCommand(standingsCmd)
}

func runStandings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := coord.Dial(ctx, cfg.Coordinator)
	if err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.New("standings-command").Errorf("client close: %v", err)
		}
	}()

	rows, err := client.Standings(ctx)
	if err != nil {
		return fmt.Errorf("standings: %w", err)
	}

	w := cmd.OutOrStdout()
	switch standingsFormat {
	case "table":
		return export.WriteTable(w, rows)
	case "json":
		return export.WriteJSON(w, rows)
	case "csv":
		return export.WriteCSV(w, rows)
	default:
		return fmt.Errorf("unknown format %q", standingsFormat)
	}
}
