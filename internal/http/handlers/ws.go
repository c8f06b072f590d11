package handlers

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/geo"
	"smarttravel/internal/http/middleware"
	"smarttravel/internal/session"
	"smarttravel/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 4096
)

// wsCommand is a client message on the tracking socket.
type wsCommand struct {
	Type   string          `json:"type"`
	Lat    float64         `json:"lat"`
	Lon    float64         `json:"lon"`
	Code   int             `json:"code"`
	TripID json.RawMessage `json:"trip_id"`
}

// wsReply answers one command; session events are sent as they happen.
type wsReply struct {
	Type     string            `json:"type"`
	Command  string            `json:"command,omitempty"`
	Message  string            `json:"message,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
	Session  *session.Snapshot `json:"session,omitempty"`
}

func (a *App) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(a.AllowedOrigins, origin)
		},
	}
}

// GET /api/tracking/ws streams session events and accepts position fixes.
func (a *App) TrackingSocket(c *gin.Context) {
	up := a.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "tracking", "ws_upgrade_failed", err.Error())
		return
	}
	defer conn.Close()

	userID := currentUserID(c)
	sess := a.Sessions.Get(userID)
	events, unsubscribe := sess.Events().Subscribe()
	defer unsubscribe()

	replies := make(chan wsReply, 8)
	done := make(chan struct{})
	defer close(done)

	go wsWriter(conn, events, replies, done)

	snap := sess.Snapshot()
	replies <- wsReply{Type: "snapshot", Session: &snap}
	utils.LogEventf(middleware.GetRequestID(c), "tracking", "ws_connected", "user_id=%d", userID)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				utils.LogEvent(middleware.GetRequestID(c), "tracking", "ws_read_error", err.Error())
			}
			return
		}
		reply := a.handleCommand(c, sess, cmd)
		select {
		case replies <- reply:
		default:
		}
	}
}

func (a *App) handleCommand(c *gin.Context, sess *session.Session, cmd wsCommand) wsReply {
	var (
		snap session.Snapshot
		msg  string
		err  error
	)
	switch cmd.Type {
	case "select":
		var tripID int64
		if tripID, err = decodeTripID(cmd.TripID); err == nil {
			var trip models.Trip
			if trip, err = a.tripService(c).Get(int64(sess.UserID), tripID); err == nil {
				snap, err = sess.SelectTrip(trip)
			}
		}
	case "start":
		var already bool
		snap, already, err = sess.StartTracking()
		if already {
			msg = session.MsgAlreadyActive
		}
	case "position":
		snap, err = sess.OnPosition(geo.Point{Lat: cmd.Lat, Lon: cmd.Lon})
	case "error":
		msg = sess.OnPositionError(cmd.Code)
		snap = sess.Snapshot()
	case "recalculate":
		snap, err = sess.Recalculate()
	case "stop":
		msg = sess.Stop(false)
		snap = sess.Snapshot()
	default:
		err = domain.ValidationError{Field: "type", Msg: "unknown command"}
	}

	if err != nil {
		r := wsReply{Type: "error", Command: cmd.Type, Message: err.Error()}
		if pe, ok := domain.AsPrecondition(err); ok {
			r.Redirect = pe.Redirect
		}
		return r
	}
	return wsReply{Type: "ack", Command: cmd.Type, Message: msg, Session: &snap}
}

func wsWriter(conn *websocket.Conn, events <-chan session.Event, replies <-chan wsReply, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	// Closing unblocks the reader once the session is dropped or a write fails.
	defer conn.Close()

	write := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v) == nil
	}

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok || !write(ev) {
				return
			}
		case r := <-replies:
			if !write(r) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
