package agent

// State is the controller phase of one vehicle. Exactly one state is
// active at a time; the flags of the reference strategy (seek pickup,
// recompute route) are folded into the state so contradictory
// combinations cannot be represented.
type State int

const (
	// StateSeeking looks for tasks to claim. Initial state.
	StateSeeking State = iota
	// StateToHub drives to the nearest hub entrance before claiming.
	StateToHub
	// StateAwaitRoute has submitted a route and waits until the
	// coordinator reports it back on the vehicle.
	StateAwaitRoute
	// StateDelivering works through the planned delivery queue.
	StateDelivering
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateSeeking:
		return "seeking"
	case StateToHub:
		return "to_hub"
	case StateAwaitRoute:
		return "await_route"
	case StateDelivering:
		return "delivering"
	default:
		return "unknown"
	}
}
