package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/nearby"
	"smarttravel/internal/session"
)

type nearbyRequest struct {
	Destination *pointRequest `json:"destination"`
	Device      *pointRequest `json:"device"`
}

// nearbyContext prefers what the session knows, then what the client sent.
func nearbyContext(sess *session.Session, req nearbyRequest) nearby.Context {
	var nc nearby.Context
	if route, ok := sess.LastRoute(); ok {
		nc.Route = &route
	}
	if p, ok := sess.Destination(); ok {
		nc.Destination = &p
	} else if req.Destination != nil {
		p := req.Destination.point()
		nc.Destination = &p
	}
	if req.Device != nil {
		p := req.Device.point()
		nc.Device = &p
	} else if p, ok := sess.LiveMarker(); ok {
		nc.Device = &p
	}
	return nc
}

func (a *App) lookupNearby(ctx context.Context, nc nearby.Context) (nearby.Result, error) {
	return nearby.Service{Overpass: a.Overpass}.Lookup(ctx, nc)
}

// POST /api/nearby
func (a *App) Nearby(c *gin.Context) {
	var req nearbyRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	res, err := a.lookupNearby(c.Request.Context(), nearbyContext(a.session(c), req))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"nearby": res})
}
