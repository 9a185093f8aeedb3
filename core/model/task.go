package model

import "fmt"

// TaskStatus is the lifecycle state of a delivery task as reported by the
// coordinator.
type TaskStatus int

const (
	// TaskAvailable means the task is unclaimed and open to any agent.
	TaskAvailable TaskStatus = iota
	// TaskClaimed means a claim was accepted but the parcel is not yet
	// loaded.
	TaskClaimed
	// TaskOwned means the parcel is on board a vehicle.
	TaskOwned
	// TaskDelivered means the parcel reached its destination.
	TaskDelivered
)

// String returns a human-readable representation of the status.
func (s TaskStatus) String() string {
	switch s {
	case TaskAvailable:
		return "available"
	case TaskClaimed:
		return "claimed"
	case TaskOwned:
		return "owned"
	case TaskDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// Task is a single delivery job: pick the parcel up at one of the hub
// entrances and drop it at Dropoff.
type Task struct {
	ID        string
	Status    TaskStatus
	Entrances []Point // candidate pickup points at the hub
	Dropoff   Point
}

// Validate checks that the task carries enough geometry to be claimable.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is empty")
	}
	if len(t.Entrances) == 0 {
		return fmt.Errorf("task %s has no pickup entrances", t.ID)
	}
	return nil
}
