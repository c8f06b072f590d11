package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/domain"
)

type positionErrorRequest struct {
	Code int `json:"code"`
}

// GET /api/tracking
func (a *App) GetTracking(c *gin.Context) {
	sess := a.session(c)
	respondSnapshot(c, sess, sess.Snapshot(), nil)
}

// POST /api/tracking/select marks one of the caller's trips for tracking.
func (a *App) SelectTrackingTrip(c *gin.Context) {
	var req tripIDRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	tripID, err := decodeTripID(req.TripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	userID := currentUserID(c)
	trip, err := a.tripService(c).Get(int64(userID), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	snap, err := a.Sessions.Get(userID).SelectTrip(trip)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"session": snap})
}

// POST /api/tracking/start
func (a *App) StartTracking(c *gin.Context) {
	snap, already, err := a.session(c).StartTracking()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"session": snap, "already_active": already})
}

// POST /api/tracking/position
func (a *App) TrackingPosition(c *gin.Context) {
	var req pointRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	sess := a.session(c)
	snap, err := sess.OnPosition(req.point())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondSnapshot(c, sess, snap, nil)
}

// POST /api/tracking/error reports a device geolocation failure and stops tracking.
func (a *App) TrackingPositionError(c *gin.Context) {
	var req positionErrorRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	sess := a.session(c)
	msg := sess.OnPositionError(req.Code)
	RespondSuccess(c, gin.H{"message": msg, "session": sess.Snapshot()})
}

// POST /api/tracking/recalculate
func (a *App) RecalculateRoute(c *gin.Context) {
	sess := a.session(c)
	snap, err := sess.Recalculate()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondSnapshot(c, sess, snap, nil)
}

// POST /api/tracking/stop
func (a *App) StopTracking(c *gin.Context) {
	sess := a.session(c)
	msg := sess.Stop(false)
	RespondSuccess(c, gin.H{"message": msg, "session": sess.Snapshot()})
}

// decodeTripID reads a trip id sent as a number or numeric string.
func decodeTripID(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, domain.ValidationError{Field: "trip_id", Msg: "trip_id required"}
	}
	id, err := n.Int64()
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: "trip_id", Msg: "trip_id required"}
	}
	return id, nil
}
