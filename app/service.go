package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fleetiq/courier/api"
	fleetapi "github.com/fleetiq/courier/api/fleet"
	"github.com/fleetiq/courier/config"
	"github.com/fleetiq/courier/core/agent"
	"github.com/fleetiq/courier/core/events"
	"github.com/fleetiq/courier/core/journal"
	coremetrics "github.com/fleetiq/courier/core/metrics"
	"github.com/fleetiq/courier/core/reserve"
	"github.com/fleetiq/courier/core/roadnet"
	"github.com/fleetiq/courier/core/scoring"
	"github.com/fleetiq/courier/core/taskpool"
	"github.com/fleetiq/courier/infra/coord"
	"github.com/fleetiq/courier/infra/logger"
	"github.com/fleetiq/courier/infra/metrics"
	"github.com/fleetiq/courier/infra/telemetry"
	"github.com/fleetiq/courier/internal/eventbus"
)

// readyPoll is the interval at which the coordinator is asked whether
// the course is initialized before the fleet starts.
const readyPoll = 500 * time.Millisecond

// Service orchestrates the coordinator client, the shared fleet state
// and one controller per assigned vehicle.
type Service struct {
	Client      *coord.Client
	Controllers []*agent.Controller

	cfg     *config.Config
	pool    *taskpool.Store
	ledger  *reserve.Ledger
	bus     eventbus.EventBus
	sink    coremetrics.Sink
	store   journal.Store
	tele    *telemetry.Manager
	drivers []*Driver
	log     logger.Logger
}

// New connects to the coordinator, waits for the course to initialize
// and wires the fleet from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	client, err := coord.Dial(ctx, cfg.Coordinator)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	ok := false
	defer func() {
		if !ok {
			_ = client.Close()
		}
	}()

	if err := client.WaitReady(ctx, readyPoll); err != nil {
		return nil, fmt.Errorf("coordinator init: %w", err)
	}
	net, err := client.RoadNetwork(ctx)
	if err != nil {
		return nil, fmt.Errorf("road network: %w", err)
	}
	graph := roadnet.Build(net.Segments, net.Points)

	ids := cfg.Fleet.AgentIDs
	if len(ids) == 0 {
		ids, err = client.AssignedAgents(ctx)
		if err != nil {
			return nil, fmt.Errorf("assigned agents: %w", err)
		}
	}
	logg.Infof("driving %d vehicles: %v", len(ids), ids)

	sink, err := metrics.New(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New()
	svc := &Service{
		Client: client,
		cfg:    cfg,
		pool:   taskpool.NewStore(),
		ledger: reserve.NewLedger(),
		bus:    bus,
		sink:   sink,
		log:    logg,
	}

	if cfg.Journal.Enabled {
		var store journal.Store
		if cfg.Journal.Rotating() {
			store, err = journal.NewRotatingStore(cfg.Journal.Path, cfg.Journal.MaxSizeMB, cfg.Journal.MaxBackups, cfg.Journal.MaxAgeDays)
		} else {
			store, err = journal.NewJSONLStore(cfg.Journal.Path)
		}
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		svc.store = store
	}
	if cfg.Telemetry.Enabled {
		tele, err := telemetry.NewManager(cfg.MQTT, cfg.Telemetry, bus)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		svc.tele = tele
	}

	scorer := scoring.New(graph, cfg.Fleet.ScoreGridMM)
	reqTimeout := time.Duration(cfg.Coordinator.RequestTimeoutMS) * time.Millisecond
	for _, id := range ids {
		ctrl, err := agent.NewController(id, cfg.Fleet, graph, client, svc.ledger, scorer, bus, logger.ForAgent("controller", id))
		if err != nil {
			return nil, fmt.Errorf("controller %s: %w", id, err)
		}
		svc.Controllers = append(svc.Controllers, ctrl)
		svc.drivers = append(svc.drivers, NewDriver(ctrl, client, svc.pool, cfg.Fleet, reqTimeout, logger.ForAgent("driver", id)))
	}

	ok = true
	return svc, nil
}

// Run starts the fleet and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.Prometheus.Enabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.Prometheus.Addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		agents := make([]fleetapi.Agent, len(s.Controllers))
		for i, c := range s.Controllers {
			agents[i] = c
		}
		go func() {
			if err := api.Serve(ctx, s.cfg.API.Addr, s.cfg.API.Token, s.store, agents); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.store != nil {
		journal.StartEventCollector(ctx, s.bus, s.store, s.log)
	}
	if s.tele != nil {
		go s.tele.Start(ctx)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.refreshPool(ctx)
	}()
	if s.cfg.Fleet.StandingsIntervalMS > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.reportStandings(ctx, time.Duration(s.cfg.Fleet.StandingsIntervalMS)*time.Millisecond)
		}()
	}
	for _, d := range s.drivers {
		wg.Add(1)
		go func(d *Driver) {
			defer wg.Done()
			d.Run(ctx)
		}(d)
	}
	wg.Wait()
	return nil
}

// refreshPool keeps the shared task snapshot current. The first fetch
// happens immediately so controllers never start on a nil pool.
func (s *Service) refreshPool(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.cfg.Fleet.PoolRefreshMS) * time.Millisecond)
	defer ticker.Stop()
	for {
		s.fetchPool(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) fetchPool(ctx context.Context) {
	tasks, err := s.Client.Tasks(ctx)
	if err != nil {
		s.log.Warnf("task pool refresh failed: %v", err)
		return
	}
	s.pool.Replace(taskpool.NewSnapshot(tasks))
}

func (s *Service) reportStandings(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rows, err := s.Client.Standings(ctx)
			if err != nil {
				s.log.Warnf("standings refresh failed: %v", err)
				continue
			}
			s.bus.Publish(events.StandingsEvent{Standings: rows, Timestamp: time.Now()})
		case <-ctx.Done():
			return
		}
	}
}

// Close releases claimed tasks best-effort and closes the transport.
func (s *Service) Close() error {
	for _, c := range s.Controllers {
		c.Shutdown()
	}
	s.bus.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warnf("journal close: %v", err)
		}
	}
	return s.Client.Close()
}
