package agent

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fleetiq/courier/core/events"
	"github.com/fleetiq/courier/core/fleet"
	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/core/scoring"
	"github.com/fleetiq/courier/core/taskpool"
)

// candidate is one claimable task, scored for the current position.
type candidate struct {
	taskID   string
	dropoff  model.Point
	entrance model.Point
	score    float64
}

// selectCandidates returns every task worth claiming from pos, best
// first. Tasks that are not available, already carried by this agent or
// reserved by another agent are skipped. The list is deliberately not
// truncated: refused claims fall through to the next-best candidate and
// the attempt budget in claimWithRetry bounds the remote requests. Each
// task is scored with its own nearest entrance as the pickup point; hub
// is the fallback for the odd task record that carries none. Equal
// scores resolve by task id so concurrent agents rank a tied pool
// identically.
func (c *Controller) selectCandidates(pos model.Point, snap *taskpool.Snapshot, hub model.Point) []candidate {
	cands := make([]candidate, 0, snap.Len())
	for _, id := range snap.IDs() {
		task, _ := snap.Get(id)
		if task.Status != model.TaskAvailable {
			continue
		}
		if c.owns(id) {
			continue
		}
		if c.ledger.ReservedByOther(id, c.id) {
			continue
		}
		entrance, ok := scoring.NearestEntrance(pos, task)
		if !ok {
			entrance = hub
		}
		cands = append(cands, candidate{
			taskID:   id,
			dropoff:  task.Dropoff,
			entrance: entrance,
			score:    c.scorer.Score(pos, entrance, task.Dropoff),
		})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].taskID < cands[j].taskID
	})
	return cands
}

// claimWithRetry walks the candidate list and asks the coordinator for
// each task in turn, stopping at the first acceptance. The ledger entry
// is written before the remote request so a sibling controller skips the
// task instead of racing us to the coordinator; the coordinator stays
// the final arbiter. On rejection or timeout the entry is released
// again, but only while it still belongs to this agent. At most
// maxAttempts remote requests are issued; losing the local reservation
// race costs no attempt.
func (c *Controller) claimWithRetry(ctx context.Context, cands []candidate, maxAttempts int) (candidate, bool) {
	attempts := 0
	for _, cand := range cands {
		if attempts >= maxAttempts {
			break
		}
		if !c.ledger.Reserve(cand.taskID, c.id) {
			c.log.Debugf("task %s reserved elsewhere meanwhile, skipping", cand.taskID)
			continue
		}
		attempts++

		start := time.Now()
		accepted, err := c.channel.ClaimTask(ctx, c.id, cand.taskID)
		latency := time.Since(start)
		timedOut := errors.Is(err, fleet.ErrTimeout)

		claimAttempts.WithLabelValues(c.id, outcomeLabel(accepted, timedOut, err)).Inc()
		claimRoundtrip.WithLabelValues(c.id).Observe(latency.Seconds())
		if c.bus != nil {
			c.bus.Publish(events.ClaimEvent{
				AgentID:  c.id,
				TaskID:   cand.taskID,
				Accepted: accepted && err == nil,
				TimedOut: timedOut,
				Err:      err,
				Latency:  latency,
				Score:    cand.score,
			})
		}

		if err == nil && accepted {
			c.log.Infof("claimed task %s (score %.3g)", cand.taskID, cand.score)
			return cand, true
		}
		switch {
		case timedOut:
			c.log.Warnf("claim of task %s timed out after %s, trying next", cand.taskID, latency)
		case err != nil:
			c.log.Warnf("claim of task %s failed: %v", cand.taskID, err)
		default:
			c.log.Debugf("task %s refused by coordinator, trying next", cand.taskID)
		}
		c.ledger.Release(cand.taskID, c.id)
	}
	return candidate{}, false
}

// fillToCapacity claims tasks until the vehicle is full or a selection
// round comes up empty. Candidates are re-selected after every accepted
// claim because both the reservation ledger and the owned set have
// changed under it. Returns the number of tasks claimed.
func (c *Controller) fillToCapacity(ctx context.Context, pos, hub model.Point, snap *taskpool.Snapshot) int {
	claimed := 0
	for c.ownedCount < c.cfg.Capacity {
		cands := c.selectCandidates(pos, snap, hub)
		if len(cands) == 0 {
			c.log.Debugf("no claimable tasks left (%d carried)", c.ownedCount)
			break
		}
		cand, ok := c.claimWithRetry(ctx, cands, c.cfg.MaxClaimAttempts)
		if !ok {
			break
		}
		c.ownedIDs = append(c.ownedIDs, cand.taskID)
		c.dropoffs = append(c.dropoffs, cand.dropoff)
		c.ownedCount++
		claimed++
	}
	return claimed
}

// owns reports whether the task id is in the locally tracked owned set.
func (c *Controller) owns(taskID string) bool {
	for _, id := range c.ownedIDs {
		if id == taskID {
			return true
		}
	}
	return false
}
