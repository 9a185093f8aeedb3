package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetiq/courier/config"
	"github.com/fleetiq/courier/core/agent"
	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/core/roadnet"
	"github.com/fleetiq/courier/infra/coord"
	"github.com/fleetiq/courier/infra/logger"
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Compute waypoints between two positions on the course",
	RunE:  runRoute,
}

var (
	routeFrom string
	routeTo   string
)

func init() {
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "start position as X,Y in mm")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "goal position as X,Y in mm")
	_ = routeCmd.MarkFlagRequired("from")
	_ = routeCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	from, err := parsePoint(routeFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parsePoint(routeTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

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
			logger.New("route-command").Errorf("client close: %v", err)
		}
	}()

	net, err := client.RoadNetwork(ctx)
	if err != nil {
		return fmt.Errorf("road network: %w", err)
	}
	g := roadnet.Build(net.Segments, net.Points)
	for _, p := range agent.BuildLeg(g, from, to) {
		fmt.Fprintf(cmd.OutOrStdout(), "%.1f,%.1f\n", p.X, p.Y)
	}
	return nil
}

func parsePoint(s string) (model.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Point{}, fmt.Errorf("expected X,Y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("bad x coordinate: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("bad y coordinate: %w", err)
	}
	return model.Point{X: x, Y: y}, nil
}
