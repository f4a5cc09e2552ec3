// Package broker runs the session state machine: hosting, joining, move
// relay and disconnect teardown. All session mutation happens on one
// goroutine fed by typed messages, so the gateway never touches shared
// state directly.
package broker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/arcadehub/backend/internal/codes"
	"github.com/arcadehub/backend/internal/session"
	"github.com/arcadehub/backend/pkg/wire"
)

// Role tokens assigned on pairing: host moves first.
const (
	RoleHost  = "X"
	RoleGuest = "O"
)

type Msg interface{ isBrokerMsg() }

// Host creates a new waiting session for Conn.
type Host struct{ Conn *session.Conn }

// Join adds Conn to the session identified by Code.
type Join struct {
	Conn *session.Conn
	Code string
}

// Move relays an opaque payload to Conn's opponent.
type Move struct {
	Conn    *session.Conn
	Payload json.RawMessage
}

// Disconnect tears down whatever session Conn belongs to.
type Disconnect struct{ Conn *session.Conn }

// Stats asks for a snapshot of broker counters; test and ops facing.
type Stats struct{ Reply chan StatsView }

type Shutdown struct{}

func (Host) isBrokerMsg()       {}
func (Join) isBrokerMsg()       {}
func (Move) isBrokerMsg()       {}
func (Disconnect) isBrokerMsg() {}
func (Stats) isBrokerMsg()      {}
func (Shutdown) isBrokerMsg()   {}

type StatsView struct {
	Sessions     int `json:"sessions"`
	Participants int `json:"participants"`
}

type Broker struct {
	inbox    chan Msg
	registry *session.Registry
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, reg *session.Registry, log *zap.Logger) *Broker {
	ctx, cancel := context.WithCancel(parent)
	b := &Broker{
		inbox:    make(chan Msg, 64),
		registry: reg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go b.loop()
	return b
}

// Inbox is where the gateway (and tests) send messages.
func (b *Broker) Inbox() chan<- Msg { return b.inbox }

// Done is closed once the loop has stopped. Senders must select on it:
// after shutdown nothing drains the inbox, so a bare send could block
// forever.
func (b *Broker) Done() <-chan struct{} { return b.ctx.Done() }

func (b *Broker) loop() {
	for {
		select {
		case <-b.ctx.Done():
			b.shutdown()
			return

		case m := <-b.inbox:
			switch msg := m.(type) {
			case Host:
				b.handleHost(msg.Conn)
			case Join:
				b.handleJoin(msg.Conn, msg.Code)
			case Move:
				b.handleMove(msg.Conn, msg.Payload)
			case Disconnect:
				b.teardown(msg.Conn)
			case Stats:
				sessions, participants := b.registry.Counts()
				msg.Reply <- StatsView{Sessions: sessions, Participants: participants}
			case Shutdown:
				b.shutdown()
				return
			}
		}
	}
}

func (b *Broker) handleHost(conn *session.Conn) {
	// A connection belongs to at most one session: hosting anew implicitly
	// leaves whatever session it is still bound to.
	b.teardown(conn)
	for {
		code, err := codes.Generate(b.registry.Has)
		if err != nil {
			// Code space exhausted. The host gets a generic failure; the
			// broker keeps serving everyone else.
			b.log.Error("code generation failed", zap.Error(err))
			b.deliver(conn, wire.ServerMessage{Type: wire.EvtError, Message: wire.MsgHostFailed})
			return
		}
		if _, err := b.registry.Create(code, conn); err != nil {
			// Generate just checked the code was free, so a duplicate here
			// is an invariant breach. Log it and take a fresh code.
			b.log.Error("duplicate code on create", zap.String("code", code), zap.Error(err))
			continue
		}
		conn.Bind(code)
		b.deliver(conn, wire.ServerMessage{Type: wire.EvtGameHosted, Code: code})
		b.log.Info("session hosted", zap.String("code", code), zap.String("conn", conn.ID()))
		return
	}
}

func (b *Broker) handleJoin(conn *session.Conn, code string) {
	// Same rule as hosting: joining means leaving the current session
	// first. This also keeps a waiting host from joining its own code and
	// pairing with itself.
	b.teardown(conn)
	sess, err := b.registry.Get(code)
	if err != nil {
		b.deliver(conn, wire.ServerMessage{Type: wire.EvtError, Message: wire.MsgUnknownCode})
		return
	}
	if sess.Full() {
		b.deliver(conn, wire.ServerMessage{Type: wire.EvtError, Message: wire.MsgSessionFull})
		return
	}

	sess.Participants = append(sess.Participants, conn)
	sess.State = session.StateActive
	conn.Bind(code)

	// Both sides learn their role in the same handling; this is the point
	// where gameplay may begin.
	b.deliver(sess.Participants[0], wire.ServerMessage{Type: wire.EvtGameStarted, Role: RoleHost})
	b.deliver(sess.Participants[1], wire.ServerMessage{Type: wire.EvtGameStarted, Role: RoleGuest})
	b.log.Info("session started", zap.String("code", code), zap.String("conn", conn.ID()))
}

func (b *Broker) handleMove(conn *session.Conn, payload json.RawMessage) {
	code := conn.Code()
	if code == "" {
		return
	}
	sess, err := b.registry.Get(code)
	if err != nil {
		// Session already torn down; stale back-reference, nothing to relay.
		return
	}
	b.forward(sess, conn, payload)
}

// forward sends payload unmodified to every participant of sess except
// from. Fire-and-forget: no acknowledgement, no retry.
func (b *Broker) forward(sess *session.Session, from *session.Conn, payload json.RawMessage) {
	for _, p := range sess.Others(from) {
		b.deliver(p, wire.ServerMessage{Type: wire.EvtMoveMade, Payload: payload})
	}
}

// teardown collapses whatever session conn is bound to. It is the
// disconnect path, and also runs when a bound connection hosts or joins
// again so no session is left behind with a gone participant.
func (b *Broker) teardown(conn *session.Conn) {
	code := conn.Code()
	conn.Unbind()
	if code == "" {
		return
	}
	sess, err := b.registry.Get(code)
	if err != nil {
		return
	}

	// Any departure collapses the whole session; a one-sided game cannot
	// continue and there is no reconnect.
	for _, p := range sess.Others(conn) {
		p.Unbind()
		b.deliver(p, wire.ServerMessage{Type: wire.EvtOpponentDisconnected})
	}
	sess.State = session.StateTerminated
	b.registry.Remove(code)
	b.log.Info("session terminated", zap.String("code", code), zap.String("conn", conn.ID()))
}

// shutdown closes every participant's outbox so gateway writers exit.
// Waiting sessions are reaped here too; there is no TTL for them otherwise,
// a known gap.
func (b *Broker) shutdown() {
	sessions, _ := b.registry.Counts()
	b.log.Info("broker shutting down", zap.Int("sessions", sessions))
	for _, code := range b.registry.ActiveCodes() {
		sess, err := b.registry.Get(code)
		if err != nil {
			continue
		}
		for _, p := range sess.Participants {
			p.Unbind()
			p.Close()
		}
		b.registry.Remove(code)
	}
	b.cancel()
}

func (b *Broker) deliver(c *session.Conn, msg wire.ServerMessage) {
	if !c.Deliver(msg) {
		b.log.Warn("outbox full, dropping frame",
			zap.String("conn", c.ID()), zap.String("type", msg.Type))
	}
}
