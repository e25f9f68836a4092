package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/feed"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/middleware"
	"github.com/stemsi/marksheet-backend/internal/model"
	ws "github.com/stemsi/marksheet-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the live marksheet.
type WSHandler struct {
	feed     *feed.Feed
	composer *marks.Composer
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(f *feed.Feed, composer *marks.Composer, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		feed:     f,
		composer: composer,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// MarksheetStream godoc
// WS /ws/v1/marksheet?token=...&search=&sort=&dir=
// Sends the derived marksheet on connect and again after every change. The
// client may change its view at any time with a "view" action.
func (h *WSHandler) MarksheetStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	query := marks.NewViewQuery(c.Query("search"), c.Query("sort"), c.Query("dir"))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	snapshots, err := h.feed.Subscribe(ctx)
	if err != nil {
		wsLog.Error().Err(err).Msg("Feed subscribe failed")
		ws.WriteError(conn, "marksheet unavailable")
		return
	}

	latest, ok := <-snapshots
	if !ok {
		return
	}
	if err := h.writeSnapshot(conn, latest, query); err != nil {
		return
	}

	wsLog.Info().Msg("Marksheet stream connected")

	// The reader goroutine only reads; every write happens in the loop below.
	requests := make(chan ws.Request)
	go func() {
		defer cancel()
		ws.KeepAlive(conn)
		for {
			var req ws.Request
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return

		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			latest = snap
			err = h.writeSnapshot(conn, latest, query)

		case req := <-requests:
			switch req.Action {
			case ws.ActionView:
				query = marks.NewViewQuery(req.Search, req.Sort, req.Dir)
				err = h.writeSnapshot(conn, latest, query)
			case ws.ActionPing:
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			default:
				wsLog.Warn().Str("action", string(req.Action)).Msg("Unknown action")
				err = ws.WriteError(conn, "unknown action: "+string(req.Action))
			}

		case <-ping.C:
			err = ws.WritePing(conn)
		}

		if err != nil {
			wsLog.Debug().Err(err).Msg("Write failed, closing stream")
			return
		}
	}
}

func (h *WSHandler) writeSnapshot(conn *websocket.Conn, snap feed.Snapshot, q marks.ViewQuery) error {
	subjects := snap.Subjects
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return ws.WriteTyped(conn, ws.SnapshotResponse{
		Event:    ws.EventSnapshot,
		Students: h.composer.DeriveView(snap.Students, q),
		Subjects: subjects,
		Query:    q,
		At:       snap.At,
	})
}
