package session

import (
	"time"

	"github.com/google/uuid"

	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/geo"
	"smarttravel/internal/utils"
)

// State of the live tracking state machine.
type State string

const (
	Idle     State = "idle"
	Starting State = "starting"
	Active   State = "active"
)

const (
	MsgStopped             = "Live tracking stopped."
	MsgAlreadyActive       = "Live tracking is already active."
	MsgRecalculating       = "Recalculating..."
	MsgPermissionDenied    = "Location permission denied. Please enable it in your browser settings."
	MsgPositionUnavailable = "Location position unavailable. Check your network or GPS."
	MsgTimeout             = "Location request timed out. Please try again."
	MsgLocationFailed      = "Unable to get live location. Please ensure location services are enabled."
)

var (
	ErrNoTripSelected = domain.PreconditionError{
		Msg:      "Please select a trip from 'My Trips' first, then click 'Track'.",
		Redirect: "/my-trips",
	}
	ErrNotTracking = domain.PreconditionError{Msg: "Tracking is not active."}
)

// Summary is the distance/ETA box shown while tracking.
type Summary struct {
	Visible  bool   `json:"visible"`
	Distance string `json:"distance,omitempty"`
	ETA      string `json:"eta,omitempty"`
}

type tracking struct {
	state       State
	watchID     string
	trip        *models.Trip
	initialized bool
	liveMarker  *geo.Point
	summary     Summary
}

// TrackingView is the client-visible tracking state.
type TrackingView struct {
	State          State        `json:"state"`
	WatchID        string       `json:"watch_id,omitempty"`
	SelectedTrip   *models.Trip `json:"selected_trip,omitempty"`
	Trip           *models.Trip `json:"trip,omitempty"`
	Initialized    bool         `json:"initialized"`
	LiveMarker     *geo.Point   `json:"live_marker,omitempty"`
	Summary        Summary      `json:"summary"`
	CanRecalculate bool         `json:"can_recalculate"`
}

func (t tracking) view(selected *models.Trip) TrackingView {
	state := t.state
	if state == "" {
		state = Idle
	}
	v := TrackingView{
		State:       state,
		WatchID:     t.watchID,
		Initialized: t.initialized,
		LiveMarker:  clonePoint(t.liveMarker),
		Summary:     t.summary,
	}
	if selected != nil {
		c := *selected
		v.SelectedTrip = &c
	}
	if t.trip != nil {
		c := *t.trip
		v.Trip = &c
	}
	v.CanRecalculate = t.initialized && t.liveMarker != nil
	return v
}

// SelectTrip marks trip as the one to track. An active tracking session for
// another trip is stopped first.
func (s *Session) SelectTrip(trip models.Trip) (Snapshot, error) {
	dest := geo.Point{Lat: trip.Latitude, Lon: trip.Longitude}
	if !dest.Valid() {
		return Snapshot{}, domain.ValidationError{Field: "trip", Msg: "trip has no destination coordinates"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.tracking.state != "" && s.tracking.state != Idle {
		if s.tracking.trip != nil && s.tracking.trip.ID == trip.ID {
			return s.snapshotLocked(), nil
		}
		s.stopLocked()
	}
	s.selected = &trip
	s.publishLocked(EventTracking, s.tracking.view(s.selected))
	return s.snapshotLocked(), nil
}

// StartTracking opens a position watch for the selected trip. When tracking is
// already running it returns the existing session and reports true.
func (s *Session) StartTracking() (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.tracking.watchID != "" {
		return s.snapshotLocked(), true, nil
	}
	if s.selected == nil {
		return Snapshot{}, false, ErrNoTripSelected
	}

	trip := *s.selected
	s.tracking = tracking{
		state:   Starting,
		watchID: uuid.NewString(),
		trip:    &trip,
		summary: Summary{Visible: true},
	}
	utils.LogEventf("", "tracking", "start", "user=%d trip=%d watch=%s", s.UserID, trip.ID, s.tracking.watchID)
	s.publishLocked(EventTracking, s.tracking.view(s.selected))
	return s.snapshotLocked(), false, nil
}

// OnPosition feeds one position fix into the watch. The first fix places the
// live marker and requests a route to the trip destination; later fixes only
// move the marker and pan the viewport when the marker leaves it.
func (s *Session) OnPosition(p geo.Point) (Snapshot, error) {
	if !p.Valid() {
		return Snapshot{}, domain.ValidationError{Field: "position", Msg: "invalid coordinate"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.tracking.watchID == "" || s.tracking.trip == nil {
		return Snapshot{}, ErrNotTracking
	}

	fix := p
	s.tracking.liveMarker = &fix
	s.publishLocked(EventMarker, map[string]any{"role": "live", "point": p})

	if !s.tracking.initialized {
		s.tracking.initialized = true
		s.tracking.state = Active
		dest := geo.Point{Lat: s.tracking.trip.Latitude, Lon: s.tracking.trip.Longitude}
		s.requestRouteLocked(OwnerTracking, p, dest)
		s.panIfOutsideLocked(p)
		s.publishLocked(EventTracking, s.tracking.view(s.selected))
		return s.snapshotLocked(), nil
	}

	s.panIfOutsideLocked(p)
	return s.snapshotLocked(), nil
}

func (s *Session) panIfOutsideLocked(p geo.Point) {
	if s.viewport.Contains(p) {
		return
	}
	s.viewport = s.viewport.PanTo(p)
	s.publishLocked(EventPan, s.viewport)
}

// Recalculate re-requests a route from the live marker to the current
// route's destination waypoint.
func (s *Session) Recalculate() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if !s.tracking.initialized || s.tracking.liveMarker == nil || s.route == nil {
		return Snapshot{}, ErrNotTracking
	}

	dest := s.route.waypoints[1]
	s.tracking.summary = Summary{Visible: true, Distance: MsgRecalculating, ETA: "..."}
	s.requestRouteLocked(OwnerTracking, *s.tracking.liveMarker, dest)
	s.publishLocked(EventTracking, s.tracking.view(s.selected))
	return s.snapshotLocked(), nil
}

// Stop ends tracking from any state. It returns the confirmation message, or
// an empty string when silent.
func (s *Session) Stop(silent bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.stopLocked()
	if silent {
		return ""
	}
	return MsgStopped
}

func (s *Session) stopLocked() {
	if s.tracking.watchID != "" {
		utils.LogEventf("", "tracking", "stop", "user=%d watch=%s", s.UserID, s.tracking.watchID)
	}
	s.clearRouteLocked()
	wasTracking := s.tracking.watchID != "" || s.selected != nil
	s.tracking = tracking{state: Idle}
	s.selected = nil
	if wasTracking {
		s.publishLocked(EventTracking, s.tracking.view(nil))
	}
}

// PositionErrorMessage maps a geolocation error code to its user message.
func PositionErrorMessage(code int) string {
	switch code {
	case 1:
		return MsgPermissionDenied
	case 2:
		return MsgPositionUnavailable
	case 3:
		return MsgTimeout
	default:
		return MsgLocationFailed
	}
}

// OnPositionError reports a failed position watch and silently stops tracking.
func (s *Session) OnPositionError(code int) string {
	msg := PositionErrorMessage(code)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	utils.LogEventf("", "tracking", "position_error", "user=%d code=%d", s.UserID, code)
	s.stopLocked()
	s.publishLocked(EventMessage, msg)
	return msg
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
