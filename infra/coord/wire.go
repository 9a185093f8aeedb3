package coord

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fleetiq/courier/core/model"
)

// The coordinator speaks JSON envelopes over a websocket. Every message,
// both directions, is {"event": <name>, "payload": <object>}; replies are
// matched to requests by event name because the protocol carries no
// correlation ids.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event names of the coordinator protocol. Requests on the left of each
// pair, their replies on the right; any request may instead resolve with
// evtError.
const (
	evtAuth        = "push_team_information"
	evtAuthReply   = "team_information_updated"
	evtInit        = "get_server_init_status"
	evtInitReply   = "server_init_status"
	evtAssign      = "get_assign_car" // reply reuses the request name
	evtRoad        = "get_road_information"
	evtRoadReply   = "road_information"
	evtPkgs        = "get_package_list"
	evtPkgsReply   = "package_data"
	evtCar         = "get_car"
	evtCarReply    = "car_data"
	evtRoute       = "update_route"
	evtRouteReply  = "route_updated"
	evtPickup      = "request_pickup_package"
	evtPickupReply = "package_updated"
	evtTeams       = "get_teams_information"
	evtTeamsReply  = "teams_information"
	evtError       = "error"
)

// ServerError is an error event received in place of the expected reply.
// For claim and route requests it means the coordinator refused; for
// data requests it means the data could not be served.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("coordinator: %s", e.Message)
}

type errorPayload struct {
	Message string `json:"message"`
}

type authPayload struct {
	UserName string `json:"userName"`
	Pwd      string `json:"pwd"`
}

type initStatusPayload struct {
	State int `json:"state"`
}

type assignCarPayload struct {
	CarIDs []int `json:"car_id"`
}

type carRequest struct {
	CarID int `json:"car_id"`
}

type routeRequest struct {
	CarID    int         `json:"car_id"`
	Route    [][]float64 `json:"route"`
	UserName string      `json:"userName"`
	Pwd      string      `json:"pwd"`
}

type pickupRequest struct {
	CarID     int    `json:"car_id"`
	PackageID string `json:"package_id"`
	UserName  string `json:"userName"`
	Pwd       string `json:"pwd"`
}

type wireStreet struct {
	Start []float64 `json:"start"`
	End   []float64 `json:"end"`
}

type roadInfoPayload struct {
	Success bool         `json:"success"`
	Streets []wireStreet `json:"streets"`
	Points  [][]float64  `json:"points"`
}

type wirePackage struct {
	Status        int         `json:"status"`
	PositionStart [][]float64 `json:"position_start"`
	PositionEnd   []float64   `json:"position_end"`
}

type packageListPayload struct {
	Success  bool                   `json:"success"`
	Packages map[string]wirePackage `json:"packages"`
}

type wireCar struct {
	PositionMM  []float64   `json:"position_mm"`
	Orientation float64     `json:"orientation"`
	SpeedMMPerS float64     `json:"speed_mm_per_s"`
	Route       [][]float64 `json:"route"`
	OwnedCount  int         `json:"numOwnedPackages"`
	Timestamp   float64     `json:"timestamp"`
}

type carDataPayload struct {
	Data wireCar `json:"data"`
}

type teamEntry struct {
	Point          float64 `json:"point"`
	TravelDistance float64 `json:"travel_distance"`
}

type teamsInfoPayload struct {
	Success bool                 `json:"success"`
	Info    map[string]teamEntry `json:"info"`
}

// carID converts the engine's string agent id into the numeric car id
// the coordinator speaks.
func carID(agentID string) (int, error) {
	id, err := strconv.Atoi(agentID)
	if err != nil {
		return 0, fmt.Errorf("agent id %q is not a coordinator car id: %w", agentID, err)
	}
	return id, nil
}

// point2 reads a wire [x, y] pair. Extra elements are tolerated, missing
// ones are not.
func point2(v []float64) (model.Point, bool) {
	if len(v) < 2 {
		return model.Point{}, false
	}
	return model.Point{X: v[0], Y: v[1]}, true
}

func routePoints(waypoints []model.Point) [][]float64 {
	pts := make([][]float64, len(waypoints))
	for i, p := range waypoints {
		pts[i] = []float64{p.X, p.Y}
	}
	return pts
}

// toRoadNetwork converts the wire payload, dropping malformed records.
// The count of dropped records is returned for logging.
func (r roadInfoPayload) toRoadNetwork() (model.RoadNetwork, int) {
	var net model.RoadNetwork
	dropped := 0
	for _, p := range r.Points {
		pt, ok := point2(p)
		if !ok {
			dropped++
			continue
		}
		net.Points = append(net.Points, pt)
	}
	for _, s := range r.Streets {
		start, okS := point2(s.Start)
		end, okE := point2(s.End)
		if !okS || !okE {
			dropped++
			continue
		}
		net.Segments = append(net.Segments, model.Segment{Start: start, End: end})
	}
	return net, dropped
}

// taskStatus maps the coordinator's numeric package status. Only zero is
// claimable; the engine treats everything else as out of reach.
func taskStatus(status int) model.TaskStatus {
	switch status {
	case 0:
		return model.TaskAvailable
	case 1:
		return model.TaskClaimed
	case 2:
		return model.TaskOwned
	case 3:
		return model.TaskDelivered
	default:
		return model.TaskClaimed
	}
}

func (w wirePackage) toTask(id string) (model.Task, bool) {
	dropoff, ok := point2(w.PositionEnd)
	if !ok {
		return model.Task{}, false
	}
	t := model.Task{ID: id, Status: taskStatus(w.Status), Dropoff: dropoff}
	for _, e := range w.PositionStart {
		if p, ok := point2(e); ok {
			t.Entrances = append(t.Entrances, p)
		}
	}
	if len(t.Entrances) == 0 {
		return model.Task{}, false
	}
	return t, true
}

func (w wireCar) toAgentState(agentID string) (model.AgentState, error) {
	pos, ok := point2(w.PositionMM)
	if !ok {
		return model.AgentState{}, fmt.Errorf("car %s reported malformed position_mm %v", agentID, w.PositionMM)
	}
	st := model.AgentState{
		ID:         agentID,
		Position:   pos,
		Heading:    w.Orientation,
		Speed:      w.SpeedMMPerS,
		OwnedCount: w.OwnedCount,
		Timestamp:  floatTime(w.Timestamp),
	}
	for _, wp := range w.Route {
		if p, ok := point2(wp); ok {
			st.Route = append(st.Route, p)
		}
	}
	return st, nil
}

// floatTime converts the coordinator's unix-seconds float timestamps.
func floatTime(ts float64) time.Time {
	if ts <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9))
}
