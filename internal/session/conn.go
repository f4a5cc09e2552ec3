package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/arcadehub/backend/pkg/wire"
)

// outboxSize buffers a handful of frames per client so one slow reader
// never blocks the broker loop.
const outboxSize = 16

// Conn represents one live client connection. The gateway owns its
// lifetime; the code back-reference is touched only by the broker loop,
// and it is a lookup key into the registry, not ownership of the session.
type Conn struct {
	id        string
	outbox    chan wire.ServerMessage
	code      string
	closeOnce sync.Once
}

func NewConn() *Conn {
	return &Conn{
		id:     uuid.NewString(),
		outbox: make(chan wire.ServerMessage, outboxSize),
	}
}

func (c *Conn) ID() string { return c.id }

// Outbox is drained by the gateway's writer goroutine. It is closed when
// the broker shuts down.
func (c *Conn) Outbox() <-chan wire.ServerMessage { return c.outbox }

// Code returns the session this connection is bound to, or "" when it is
// not in a session.
func (c *Conn) Code() string { return c.code }

// Bind and Unbind must only be called from the broker loop.
func (c *Conn) Bind(code string) { c.code = code }
func (c *Conn) Unbind()          { c.code = "" }

// Deliver queues msg without blocking and reports whether the outbox had
// room. Delivery is best-effort: a full outbox drops the frame.
func (c *Conn) Deliver(msg wire.ServerMessage) bool {
	select {
	case c.outbox <- msg:
		return true
	default:
		return false
	}
}

// Close closes the outbox, ending the gateway's writer. Safe to call more
// than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.outbox) })
}
