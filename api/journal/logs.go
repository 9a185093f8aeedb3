// Package journal exposes the fleet journal over HTTP for operators.
package journal

import (
	"encoding/json"
	"net/http"
	"time"

	corejournal "github.com/fleetiq/courier/core/journal"
)

// NewLogHandler returns an HTTP handler exposing journal records via
// GET /api/journal. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty. Filters: start and end
// (RFC3339), agent_id, kind.
func NewLogHandler(store corejournal.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := corejournal.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.AgentID = r.URL.Query().Get("agent_id")
		if k := r.URL.Query().Get("kind"); k != "" {
			if !validKind(k) {
				http.Error(w, "unknown kind", http.StatusBadRequest)
				return
			}
			q.Kind = k
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []corejournal.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func validKind(k string) bool {
	switch k {
	case corejournal.KindClaim, corejournal.KindRoute, corejournal.KindDelivery, corejournal.KindState:
		return true
	default:
		return false
	}
}
