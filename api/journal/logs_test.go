package journal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	corejournal "github.com/fleetiq/courier/core/journal"
)

type memStore struct{ recs []corejournal.Record }

func (m *memStore) Append(ctx context.Context, r corejournal.Record) error {
	m.recs = append(m.recs, r)
	return nil
}

func (m *memStore) Query(ctx context.Context, q corejournal.Query) ([]corejournal.Record, error) {
	var res []corejournal.Record
	for _, r := range m.recs {
		if q.AgentID != "" && r.AgentID != q.AgentID {
			continue
		}
		if q.Kind != "" && r.Kind != q.Kind {
			continue
		}
		res = append(res, r)
	}
	return res, nil
}

func (m *memStore) Close() error { return nil }

func TestLogHandlerAuthAndFilters(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()
	if err := store.Append(ctx, corejournal.Record{
		Timestamp: time.Now(), Kind: corejournal.KindClaim, AgentID: "1", TaskID: "p1", Accepted: true,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, corejournal.Record{
		Timestamp: time.Now(), Kind: corejournal.KindDelivery, AgentID: "2",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	h := NewLogHandler(store, "tok")

	req := httptest.NewRequest("GET", "/api/journal?agent_id=1&kind=claim", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []corejournal.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out[0].TaskID != "p1" {
		t.Fatalf("unexpected records %+v", out)
	}

	// unauthorized
	req = httptest.NewRequest("GET", "/api/journal", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestLogHandlerRejectsUnknownKind(t *testing.T) {
	h := NewLogHandler(&memStore{}, "")
	req := httptest.NewRequest("GET", "/api/journal?kind=bogus", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestLogHandlerEmptyIsArray(t *testing.T) {
	h := NewLogHandler(&memStore{}, "")
	req := httptest.NewRequest("GET", "/api/journal", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if rr.Body.String() != "[]\n" {
		t.Fatalf("expected empty array got %s", rr.Body.String())
	}
}
