package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fleetiq/courier/core/model"
	"github.com/fleetiq/courier/infra/logger"
)

// Server answers the coordinator websocket protocol on top of a World.
// Each connection is served lockstep: one request in, one reply out.
type Server struct {
	world *World
	upg   websocket.Upgrader
	log   logger.Logger
}

// NewServer wraps world in a protocol handler.
func NewServer(world *World, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Server{
		world: world,
		upg:   websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		log:   log,
	}
}

// Handler exposes the server as an http.Handler so callers can mount it
// on any mux or an httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	return mux
}

// ListenAndServe runs the protocol on addr until ctx is done.
func ListenAndServe(ctx context.Context, addr string, world *World, log logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewServer(world, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type wireEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upg.Upgrade(rw, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	s.log.Debugf("client connected from %s", conn.RemoteAddr())

	team := ""
	for {
		var env wireEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			s.log.Debugf("client %s gone: %v", conn.RemoteAddr(), err)
			return
		}
		if err := conn.WriteJSON(s.dispatch(&team, env)); err != nil {
			s.log.Warnf("write to %s failed: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *Server) dispatch(team *string, env wireEnvelope) wireEnvelope {
	if env.Event == "push_team_information" {
		return s.handleAuth(team, env.Payload)
	}
	if *team == "" {
		return errEnvelope("not authenticated")
	}
	switch env.Event {
	case "get_server_init_status":
		return reply("server_init_status", map[string]int{"state": 1})
	case "get_assign_car":
		return reply("get_assign_car", map[string][]int{"car_id": s.world.AssignedCars()})
	case "get_road_information":
		return s.handleRoad()
	case "get_package_list":
		return s.handlePackages()
	case "get_car":
		return s.handleCar(env.Payload)
	case "update_route":
		return s.handleRoute(*team, env.Payload)
	case "request_pickup_package":
		return s.handlePickup(*team, env.Payload)
	case "get_teams_information":
		return s.handleTeams()
	default:
		return errEnvelope(fmt.Sprintf("unknown event %q", env.Event))
	}
}

func (s *Server) handleAuth(team *string, raw json.RawMessage) wireEnvelope {
	var req struct {
		UserName string `json:"userName"`
		Pwd      string `json:"pwd"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.UserName == "" {
		return errEnvelope("unknown team")
	}
	*team = req.UserName
	s.world.EnsureTeam(req.UserName)
	s.log.Infof("team %s joined", req.UserName)
	return reply("team_information_updated", map[string]bool{"success": true})
}

func (s *Server) handleRoad() wireEnvelope {
	course := s.world.Road()
	type wireStreet struct {
		Start []float64 `json:"start"`
		End   []float64 `json:"end"`
	}
	payload := struct {
		Success bool         `json:"success"`
		Streets []wireStreet `json:"streets"`
		Points  [][]float64  `json:"points"`
	}{Success: true}
	for _, seg := range course.Segments {
		payload.Streets = append(payload.Streets, wireStreet{Start: xyPair(seg.Start), End: xyPair(seg.End)})
	}
	for _, p := range course.Points {
		payload.Points = append(payload.Points, xyPair(p))
	}
	return reply("road_information", payload)
}

func (s *Server) handlePackages() wireEnvelope {
	type wirePackage struct {
		Status        int         `json:"status"`
		PositionStart [][]float64 `json:"position_start"`
		PositionEnd   []float64   `json:"position_end"`
	}
	payload := struct {
		Success  bool                   `json:"success"`
		Packages map[string]wirePackage `json:"packages"`
	}{Success: true, Packages: map[string]wirePackage{}}
	for id, pkg := range s.world.Packages() {
		wp := wirePackage{Status: pkg.Status, PositionEnd: xyPair(pkg.Dropoff)}
		for _, e := range pkg.Entrances {
			wp.PositionStart = append(wp.PositionStart, xyPair(e))
		}
		payload.Packages[id] = wp
	}
	return reply("package_data", payload)
}

func (s *Server) handleCar(raw json.RawMessage) wireEnvelope {
	var req struct {
		CarID int `json:"car_id"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return errEnvelope("malformed payload")
	}
	v, ok := s.world.Car(req.CarID)
	if !ok {
		return errEnvelope(fmt.Sprintf("unknown car %d", req.CarID))
	}
	type wireCar struct {
		PositionMM  []float64   `json:"position_mm"`
		Orientation float64     `json:"orientation"`
		SpeedMMPerS float64     `json:"speed_mm_per_s"`
		Route       [][]float64 `json:"route"`
		OwnedCount  int         `json:"numOwnedPackages"`
		Timestamp   float64     `json:"timestamp"`
	}
	car := wireCar{
		PositionMM:  xyPair(v.Position),
		Orientation: v.Orientation,
		SpeedMMPerS: v.Speed,
		OwnedCount:  len(v.Owned),
		Timestamp:   float64(time.Now().UnixNano()) / 1e9,
	}
	for _, p := range v.Route {
		car.Route = append(car.Route, xyPair(p))
	}
	return reply("car_data", struct {
		Data wireCar `json:"data"`
	}{Data: car})
}

func (s *Server) handleRoute(team string, raw json.RawMessage) wireEnvelope {
	var req struct {
		CarID int         `json:"car_id"`
		Route [][]float64 `json:"route"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return errEnvelope("malformed payload")
	}
	pts := make([]model.Point, 0, len(req.Route))
	for _, p := range req.Route {
		if len(p) < 2 {
			return errEnvelope("malformed route")
		}
		pts = append(pts, model.Point{X: p[0], Y: p[1]})
	}
	if err := s.world.SetRoute(req.CarID, pts, team); err != nil {
		return errEnvelope(err.Error())
	}
	return reply("route_updated", map[string]bool{"success": true})
}

func (s *Server) handlePickup(team string, raw json.RawMessage) wireEnvelope {
	var req struct {
		CarID     int    `json:"car_id"`
		PackageID string `json:"package_id"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return errEnvelope("malformed payload")
	}
	if err := s.world.Pickup(req.CarID, req.PackageID, team); err != nil {
		return errEnvelope(err.Error())
	}
	return reply("package_updated", map[string]bool{"success": true})
}

func (s *Server) handleTeams() wireEnvelope {
	type teamEntry struct {
		Point          float64 `json:"point"`
		TravelDistance float64 `json:"travel_distance"`
	}
	info := make(map[string]teamEntry)
	for name, sc := range s.world.Standings() {
		info[name] = teamEntry{Point: sc.Points, TravelDistance: sc.Travel}
	}
	return reply("teams_information", struct {
		Success bool                 `json:"success"`
		Info    map[string]teamEntry `json:"info"`
	}{Success: true, Info: info})
}

func reply(event string, payload interface{}) wireEnvelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(`{"message":"encode failed"}`)
		event = "error"
	}
	return wireEnvelope{Event: event, Payload: raw}
}

func errEnvelope(msg string) wireEnvelope {
	return reply("error", map[string]string{"message": msg})
}

func xyPair(p model.Point) []float64 {
	return []float64{p.X, p.Y}
}
