package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/geo"
	"smarttravel/internal/session"
)

const waitRouteTimeout = 20 * time.Second

type pointRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p pointRequest) point() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon}
}

// respondSnapshot optionally waits for the pending route (?wait=1) before replying.
func respondSnapshot(c *gin.Context, sess *session.Session, snap session.Snapshot, fields gin.H) {
	if wantsWait(c) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), waitRouteTimeout)
		snap, _ = sess.WaitRoute(ctx)
		cancel()
	}
	if fields == nil {
		fields = gin.H{}
	}
	fields["session"] = snap
	RespondSuccess(c, fields)
}

// GET /api/planner
func (a *App) GetPlanner(c *gin.Context) {
	sess := a.session(c)
	respondSnapshot(c, sess, sess.Snapshot(), nil)
}

// DELETE /api/planner
func (a *App) ClearPlanner(c *gin.Context) {
	sess := a.session(c)
	RespondSuccess(c, gin.H{"session": sess.ClearPlanner()})
}

// PUT /api/planner/start
func (a *App) SetPlannerStart(c *gin.Context) {
	a.setMarker(c, (*session.Session).SetStartMarker)
}

// PUT /api/planner/destination
func (a *App) SetPlannerDestination(c *gin.Context) {
	a.setMarker(c, (*session.Session).SetDestinationMarker)
}

func (a *App) setMarker(c *gin.Context, set func(*session.Session, geo.Point) (session.Snapshot, error)) {
	var req pointRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	sess := a.session(c)
	snap, err := set(sess, req.point())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondSnapshot(c, sess, snap, nil)
}

// PUT /api/planner/viewport
func (a *App) SetPlannerViewport(c *gin.Context) {
	var req geo.Viewport
	if !BindJSONOrError(c, &req) {
		return
	}
	sess := a.session(c)
	if err := sess.SetViewport(req); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"session": sess.Snapshot()})
}
