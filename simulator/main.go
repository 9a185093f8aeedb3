// Command simulator runs a standalone coordinator with a simulated
// course, vehicles and parcels. Point the courier engine at it to
// exercise the whole fleet without hardware:
//
//	go run ./simulator -addr :8080 -vehicles 3 -packages 10 -verbose
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleetiq/courier/infra/logger"
	"github.com/fleetiq/courier/internal/sim"
)

func main() {
	var (
		addr    = flag.String("addr", ":8080", "websocket listen address")
		verbose = flag.Bool("verbose", false, "log world events")
	)
	var cfg sim.Config
	flag.IntVar(&cfg.Vehicles, "vehicles", 2, "number of simulated cars")
	flag.IntVar(&cfg.Packages, "packages", 8, "number of parcels waiting at the hub")
	flag.IntVar(&cfg.Cols, "cols", 6, "grid columns")
	flag.IntVar(&cfg.Rows, "rows", 4, "grid rows")
	flag.Float64Var(&cfg.SpacingMM, "spacing", 1000, "grid spacing in mm")
	flag.Float64Var(&cfg.SpeedMMPerS, "speed", 500, "vehicle speed in mm/s")
	flag.IntVar(&cfg.TickMS, "tick", 50, "world tick interval in ms")
	flag.Int64Var(&cfg.Seed, "seed", 1, "package layout seed")
	flag.Parse()

	var wlog logger.Logger = logger.NopLogger{}
	if *verbose {
		wlog = logger.New("sim")
	}
	world, err := sim.NewWorld(cfg, wlog)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go world.Run(ctx)

	log.Printf("simulated coordinator listening on %s (%d cars, %d packages)", *addr, cfg.Vehicles, cfg.Packages)
	if err := sim.ListenAndServe(ctx, *addr, world, wlog); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
