// Package fleet exposes live controller snapshots over HTTP for operators.
package fleet

import (
	"encoding/json"
	"net/http"

	"github.com/fleetiq/courier/core/agent"
	"github.com/fleetiq/courier/core/model"
)

// Agent is the read-side of one vehicle controller.
type Agent interface {
	ID() string
	State() agent.State
	OwnedIDs() []string
	Queue() []model.Point
	Busy() bool
}

// Status is one vehicle's snapshot as served to operators.
type Status struct {
	AgentID string        `json:"agent_id"`
	State   string        `json:"state"`
	Owned   []string      `json:"owned"`
	Queue   []model.Point `json:"queue"`
	Busy    bool          `json:"busy"`
}

// NewStatusHandler returns an HTTP handler exposing fleet status via
// GET /api/fleet/status. Filters: agent_id, state.
func NewStatusHandler(agents []Agent) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wantID := r.URL.Query().Get("agent_id")
		wantState := r.URL.Query().Get("state")
		out := make([]Status, 0, len(agents))
		for _, a := range agents {
			if wantID != "" && a.ID() != wantID {
				continue
			}
			st := a.State().String()
			if wantState != "" && st != wantState {
				continue
			}
			out = append(out, Status{
				AgentID: a.ID(),
				State:   st,
				Owned:   a.OwnedIDs(),
				Queue:   a.Queue(),
				Busy:    a.Busy(),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
