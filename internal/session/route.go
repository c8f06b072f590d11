package session

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"smarttravel/internal/domain"
	"smarttravel/internal/geo"
	"smarttravel/internal/utils"
)

// Route owners.
const (
	OwnerPlanner  = "planner"
	OwnerTracking = "tracking"
)

// routeControl is the single route overlay of a session. A new request always
// replaces it and takes the next generation.
type routeControl struct {
	generation uint64
	owner      string
	waypoints  [2]geo.Point
	pending    bool
	result     *geo.RouteResult
	err        string
	cancel     context.CancelFunc
	done       chan struct{}
}

func (rc *routeControl) settle() {
	select {
	case <-rc.done:
	default:
		close(rc.done)
	}
}

// RouteView is the client-visible route overlay.
type RouteView struct {
	Generation      uint64           `json:"generation"`
	Owner           string           `json:"owner"`
	Waypoints       []geo.Point      `json:"waypoints"`
	Pending         bool             `json:"pending"`
	Error           string           `json:"error,omitempty"`
	DistanceKm      float64          `json:"distance_km,omitempty"`
	DurationSeconds float64          `json:"duration_s,omitempty"`
	Geometry        *geojson.Feature `json:"geometry,omitempty"`
}

func (rc *routeControl) view() RouteView {
	v := RouteView{
		Generation: rc.generation,
		Owner:      rc.owner,
		Waypoints:  []geo.Point{rc.waypoints[0], rc.waypoints[1]},
		Pending:    rc.pending,
		Error:      rc.err,
	}
	if rc.result != nil {
		v.DistanceKm = rc.result.DistanceKm()
		v.DurationSeconds = rc.result.DurationSeconds
		v.Geometry = rc.result.GeoJSON()
	}
	return v
}

// RouteOutcome is the asynchronous answer to one route request.
type RouteOutcome struct {
	Generation uint64
	Result     geo.RouteResult
	Err        error
}

// requestRouteLocked replaces the route control and fetches a route in the
// background. The outcome re-enters through Deliver.
func (s *Session) requestRouteLocked(owner string, from, to geo.Point) *routeControl {
	s.clearRouteLocked()
	s.generation++

	ctx, cancel := context.WithTimeout(context.Background(), s.routeTimeout)
	rc := &routeControl{
		generation: s.generation,
		owner:      owner,
		waypoints:  [2]geo.Point{from, to},
		pending:    true,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.route = rc

	if s.router == nil {
		cancel()
		rc.pending = false
		rc.err = "Routing is not configured."
		rc.settle()
		return rc
	}

	s.inflight.Add(1)
	go func(gen uint64) {
		defer s.inflight.Done()
		defer cancel()
		res, err := s.router.Route(ctx, from, to)
		s.Deliver(RouteOutcome{Generation: gen, Result: res, Err: err})
	}(rc.generation)

	return rc
}

// Deliver applies a route outcome. Outcomes from a superseded generation are
// discarded and Deliver reports false.
func (s *Session) Deliver(o RouteOutcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rc := s.route
	if rc == nil || rc.generation != o.Generation {
		utils.LogEvent("", "session", "route_discard",
			fmt.Sprintf("user=%d generation=%d current=%d", s.UserID, o.Generation, s.generation))
		return false
	}

	rc.pending = false
	if o.Err != nil {
		rc.err = "Could not find a route between these points."
		utils.LogEventf("", "session", "route_error", "user=%d err=%v", s.UserID, o.Err)
		if rc.owner == OwnerTracking {
			s.tracking.summary = Summary{Visible: true, Distance: "--", ETA: "--"}
		}
		rc.settle()
		s.publishLocked(EventRouteError, rc.view())
		return true
	}

	res := o.Result
	rc.result = &res
	if rc.owner == OwnerTracking {
		s.tracking.summary = Summary{
			Visible:  true,
			Distance: fmt.Sprintf("%.1f km", res.DistanceKm()),
			ETA:      utils.ClockHM(s.now().Add(secondsToDuration(res.DurationSeconds))),
		}
	}
	rc.settle()
	s.publishLocked(EventRoute, rc.view())
	return true
}

func (s *Session) clearRouteLocked() {
	if s.route == nil {
		return
	}
	s.route.cancel()
	s.route.settle()
	s.route = nil
	s.generation++
	s.publishLocked(EventRouteCleared, nil)
}

// SetStartMarker replaces the start marker and redraws the route.
func (s *Session) SetStartMarker(p geo.Point) (Snapshot, error) {
	if !p.Valid() {
		return Snapshot{}, domain.ValidationError{Field: "start", Msg: "invalid coordinate"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.start = &p
	s.publishLocked(EventMarker, map[string]any{"role": "start", "point": p})
	s.drawRouteLocked()
	return s.snapshotLocked(), nil
}

// SetDestinationMarker replaces the destination marker and redraws the route.
func (s *Session) SetDestinationMarker(p geo.Point) (Snapshot, error) {
	if !p.Valid() {
		return Snapshot{}, domain.ValidationError{Field: "destination", Msg: "invalid coordinate"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.destination = &p
	s.publishLocked(EventMarker, map[string]any{"role": "destination", "point": p})
	s.drawRouteLocked()
	return s.snapshotLocked(), nil
}

// DrawRoute stops live tracking and requests a planner route between the
// start and destination markers. Without both markers it does nothing more.
func (s *Session) DrawRoute() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.drawRouteLocked()
	return s.snapshotLocked()
}

func (s *Session) drawRouteLocked() {
	s.stopLocked()
	if s.start == nil || s.destination == nil || !s.start.Valid() || !s.destination.Valid() {
		return
	}
	s.requestRouteLocked(OwnerPlanner, *s.start, *s.destination)
}

// ClearPlanner removes both markers and the route, and stops tracking.
func (s *Session) ClearPlanner() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.stopLocked()
	s.clearRouteLocked()
	s.start, s.destination = nil, nil
	return s.snapshotLocked()
}

// SetViewport records the client's visible map bounds.
func (s *Session) SetViewport(v geo.Viewport) error {
	if !v.Valid() {
		return domain.ValidationError{Field: "viewport", Msg: "invalid bounds"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.viewport = v
	return nil
}

// WaitRoute blocks until the current route request settles or ctx is done.
func (s *Session) WaitRoute(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	rc := s.route
	s.mu.Unlock()

	if rc != nil {
		select {
		case <-rc.done:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
	return s.Snapshot(), nil
}

// LastRoute returns the computed route of the current route control.
func (s *Session) LastRoute() (geo.RouteResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.route == nil || s.route.result == nil {
		return geo.RouteResult{}, false
	}
	return *s.route.result, true
}

// Destination returns the planned destination marker, if any.
func (s *Session) Destination() (geo.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destination == nil {
		return geo.Point{}, false
	}
	return *s.destination, true
}

// LiveMarker returns the last tracked position, if tracking has a fix.
func (s *Session) LiveMarker() (geo.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracking.liveMarker == nil {
		return geo.Point{}, false
	}
	return *s.tracking.liveMarker, true
}
