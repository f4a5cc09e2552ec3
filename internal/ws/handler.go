// Package ws is the connection gateway: it binds each websocket to a
// session.Conn and translates frames to and from broker messages.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/arcadehub/backend/internal/broker"
	"github.com/arcadehub/backend/internal/session"
	"github.com/arcadehub/backend/pkg/wire"
)

const writeWait = 5 * time.Second

func Handler(b *broker.Broker, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// The PWA may be served from a different origin than the API.
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusInternalError, "")

		conn := session.NewConn()
		log.Info("client connected", zap.String("conn", conn.ID()))

		// Writer goroutine: drains the outbox the broker delivers into.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case msg, ok := <-conn.Outbox():
					if !ok {
						// Broker shutdown closed the outbox.
						c.Close(websocket.StatusGoingAway, "server shutting down")
						return
					}
					payload, err := json.Marshal(msg)
					if err != nil {
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeWait)
					_ = c.Write(ctx, websocket.MessageText, payload)
					cancel()
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Transport-level loss is the teardown trigger, not a client event.
		defer func() {
			select {
			case b.Inbox() <- broker.Disconnect{Conn: conn}:
			case <-b.Done():
				// Broker already gone; its shutdown reaped every session.
			}
			log.Info("client disconnected", zap.String("conn", conn.ID()))
		}()

		// Reader loop. No read deadline: a waiting host may idle
		// indefinitely until someone joins.
		for {
			_, data, err := c.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm wire.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				conn.Deliver(wire.ServerMessage{Type: wire.EvtError, Message: wire.MsgBadMessage})
				continue
			}

			switch cm.Type {
			case wire.EvtHostGame:
				b.Inbox() <- broker.Host{Conn: conn}
			case wire.EvtJoinGame:
				b.Inbox() <- broker.Join{Conn: conn, Code: normalizeCode(cm.Code)}
			case wire.EvtMakeMove:
				b.Inbox() <- broker.Move{Conn: conn, Payload: cm.Payload}
			default:
				conn.Deliver(wire.ServerMessage{Type: wire.EvtError, Message: wire.MsgBadMessage})
			}
		}
	}
}

// normalizeCode forgives the usual typing slips in a hand-entered code.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
