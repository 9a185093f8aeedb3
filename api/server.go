// Package api serves the operator HTTP endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	fleetapi "github.com/fleetiq/courier/api/fleet"
	journalapi "github.com/fleetiq/courier/api/journal"
	corejournal "github.com/fleetiq/courier/core/journal"
	"github.com/fleetiq/courier/infra/logger"
)

func newMux(store corejournal.Store, token string, agents []fleetapi.Agent) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/fleet/status", fleetapi.NewStatusHandler(agents))
	if store != nil {
		mux.Handle("/api/journal", journalapi.NewLogHandler(store, token))
	}
	return mux
}

// Serve runs the operator endpoints on addr until the context is
// canceled. The journal endpoint is mounted only when a store is
// provided; token guards it when non-empty.
func Serve(ctx context.Context, addr, token string, store corejournal.Store, agents []fleetapi.Agent) error {
	log := logger.New("api")
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(store, token, agents),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
