// Package stream exposes the notification fan-out over WebSocket.
//
// One connection per session: the client upgrades, the handler subscribes to
// the hub under the session's user id, and every notification published for
// that user is written as its wire envelope. The stream is push-only; the
// read loop exists to observe pongs and disconnects. A client that
// reconnects after a drop is expected to refresh its first page, so a
// dropped frame here never loses data for good.
package stream

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/careernet/go-career-backend/internal/fanout"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Browser origin policy is enforced by the CORS layer in front.
		return true
	},
}

// Handler returns the gin handler serving GET /ws/notifications.
func Handler(hub *fanout.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := streamUserID(c)

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		sub := hub.Subscribe(fanout.TopicNotifications, uid)
		log.Info().Str("user", uid).Msg("notification stream connected")

		go writePump(ws, sub, uid)
		readPump(ws)

		sub.Close()
		_ = ws.Close()
		log.Info().Str("user", uid).Msg("notification stream disconnected")
	}
}

// streamUserID mirrors the handlers package identity convention.
func streamUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
		return h
	}
	return "demo-user"
}

// writePump forwards hub deliveries and keepalive pings until the
// subscription or the connection ends.
func writePump(ws *websocket.Conn, sub *fanout.Subscription, uid string) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case n, open := <-sub.C:
			if !open {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(n.Envelope()); err != nil {
				log.Debug().Err(err).Str("user", uid).Msg("websocket write failed")
				_ = ws.Close()
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = ws.Close()
				return
			}
		}
	}
}

// readPump consumes control frames and returns when the peer goes away.
func readPump(ws *websocket.Conn) {
	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
