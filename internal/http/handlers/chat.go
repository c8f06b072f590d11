package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/chatbot"
	"smarttravel/internal/domain"
	"smarttravel/internal/geo"
	"smarttravel/internal/http/middleware"
	"smarttravel/internal/session"
	"smarttravel/internal/utils"
)

type chatRequest struct {
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (r chatRequest) device() *geo.Point {
	if r.Lat == nil || r.Lon == nil {
		return nil
	}
	return &geo.Point{Lat: *r.Lat, Lon: *r.Lon}
}

// locator resolves "where am I" from the request coordinates or the live
// tracking marker. Without either the client has no geolocation to offer.
func (a *App) locator(sess *session.Session, device *geo.Point) chatbot.Locator {
	var p geo.Point
	switch {
	case device != nil:
		p = *device
	default:
		live, ok := sess.LiveMarker()
		if !ok {
			return nil
		}
		p = live
	}
	return chatbot.LocatorFunc(func(ctx context.Context) (chatbot.Position, error) {
		if !p.Valid() {
			return chatbot.Position{}, domain.ValidationError{Field: "position", Msg: "invalid coordinates"}
		}
		pos := chatbot.Position{Point: p}
		if a.Geocoder != nil {
			if addr, err := a.Geocoder.Reverse(ctx, p); err == nil {
				pos.Address = addr
			}
		}
		return pos, nil
	})
}

// POST /api/chat
func (a *App) Chat(c *gin.Context) {
	var req chatRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if utils.NormalizeSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, "Message is required", nil)
		return
	}

	userID := currentUserID(c)
	sess := a.Sessions.Get(userID)
	conv := a.Chats.Get(userID)
	conv.OnMessage(func(m chatbot.Message) {
		sess.Events().Publish(session.Event{Type: session.EventMessage, Data: m, At: m.At})
	})

	reply, messages := conv.Send(req.Message, a.locator(sess, req.device()))
	fields := gin.H{"rule": reply.Rule, "messages": messages}

	if reply.IsCommand() {
		res, err := a.lookupNearby(c.Request.Context(), nearbyContext(sess, nearbyRequest{Device: pointFrom(req.device())}))
		if err != nil {
			utils.LogEvent(middleware.GetRequestID(c), "chat", "nearby_failed", err.Error())
			msg := conv.AddBotMessage(err.Error())
			fields["messages"] = append(messages, msg)
			fields["nearby_error"] = err.Error()
		} else {
			fields["nearby"] = res
		}
	}
	RespondSuccess(c, fields)
}

// GET /api/chat/transcript
func (a *App) ChatTranscript(c *gin.Context) {
	RespondSuccess(c, gin.H{"messages": a.Chats.Get(currentUserID(c)).Transcript()})
}

func pointFrom(p *geo.Point) *pointRequest {
	if p == nil {
		return nil
	}
	return &pointRequest{Lat: p.Lat, Lon: p.Lon}
}
