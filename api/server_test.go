package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	corejournal "github.com/fleetiq/courier/core/journal"
)

type nopStore struct{}

func (nopStore) Append(ctx context.Context, r corejournal.Record) error { return nil }
func (nopStore) Query(ctx context.Context, q corejournal.Query) ([]corejournal.Record, error) {
	return nil, nil
}
func (nopStore) Close() error { return nil }

func TestMuxRoutes(t *testing.T) {
	srv := httptest.NewServer(newMux(nopStore{}, "", nil))
	defer srv.Close()

	for _, path := range []string{"/api/fleet/status", "/api/journal"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status %d", path, resp.StatusCode)
		}
		_ = resp.Body.Close()
	}
}

func TestMuxJournalRequiresStore(t *testing.T) {
	srv := httptest.NewServer(newMux(nil, "", nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/journal")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.StatusCode)
	}
}
