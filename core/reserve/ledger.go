package reserve

import "sync"

// Ledger tracks which agent is currently trying to claim which task. It
// exists to stop two local controllers from racing each other to the
// coordinator for the same parcel; the coordinator remains the final
// arbiter. Entries are advisory and in-memory only.
type Ledger struct {
	mu   sync.Mutex
	held map[string]string // task id -> agent id
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{held: map[string]string{}}
}

// Reserve attempts to mark taskID as being claimed by agentID. The check
// and the write happen under one lock: it succeeds when the task is
// unheld or already held by the same agent, and fails when another agent
// holds it. At most one agent can hold a task at any time.
func (l *Ledger) Reserve(taskID, agentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, ok := l.held[taskID]; ok && holder != agentID {
		return false
	}
	l.held[taskID] = agentID
	return true
}

// Release removes the reservation for taskID, but only if it still maps
// to agentID. A release after another agent has re-reserved the task must
// not clobber that newer reservation.
func (l *Ledger) Release(taskID, agentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, ok := l.held[taskID]; !ok || holder != agentID {
		return false
	}
	delete(l.held, taskID)
	return true
}

// Holder returns the agent currently holding taskID.
func (l *Ledger) Holder(taskID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	holder, ok := l.held[taskID]
	return holder, ok
}

// ReservedByOther reports whether taskID is held by an agent other than
// agentID.
func (l *Ledger) ReservedByOther(taskID, agentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	holder, ok := l.held[taskID]
	return ok && holder != agentID
}

// ReleaseAgent drops every reservation held by agentID and returns how
// many were removed. Used for best-effort cleanup on shutdown.
func (l *Ledger) ReleaseAgent(agentID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for task, holder := range l.held {
		if holder == agentID {
			delete(l.held, task)
			n++
		}
	}
	return n
}

// Len returns the number of live reservations.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
