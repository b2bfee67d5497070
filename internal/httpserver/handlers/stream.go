package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

const (
	streamBuffer       = 64
	streamWriteTimeout = 5 * time.Second
)

// Stream upgrades to a websocket and forwards every feed event as a
// {"event":"announcement:<kind>","data":{...}} frame. Client frames are
// ignored. A client that cannot keep up is disconnected rather than slowing
// down the publisher, and is expected to refetch the list on reconnect.
func Stream(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frames := make(chan domain.WireMessage, streamBuffer)
		slow := make(chan struct{})
		var slowOnce sync.Once

		// subscribe before the handshake completes so the client sees every
		// event emitted after its dial returns
		for _, kind := range domain.EventKinds {
			kind := kind
			unsubscribe := d.Announcer.On(kind, func(ev domain.Event) {
				data, err := json.Marshal(ev.Announcement)
				if err != nil {
					return
				}
				select {
				case frames <- domain.WireMessage{Event: kind.WireName(), Data: data}:
				default:
					slowOnce.Do(func() { close(slow) })
				}
			})
			defer unsubscribe()
		}

		// the server-wide deadlines would cut a long-lived stream
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: d.AllowedHosts,
		})
		if err != nil {
			d.Logger.Debug("stream upgrade failed", logger.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx := conn.CloseRead(r.Context())

		d.Logger.Debug("stream opened", logger.String("remote_ip", r.RemoteAddr))
		defer d.Logger.Debug("stream closed", logger.String("remote_ip", r.RemoteAddr))

		for {
			select {
			case <-ctx.Done():
				return
			case <-d.Draining:
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			case <-slow:
				d.Logger.Warn("closing slow stream consumer",
					logger.String("remote_ip", r.RemoteAddr))
				_ = conn.Close(websocket.StatusPolicyViolation, "consumer too slow")
				return
			case frame := <-frames:
				if err := writeFrame(ctx, conn, frame); err != nil {
					return
				}
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame domain.WireMessage) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, frame)
}
