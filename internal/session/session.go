// Package session holds the session data model and the registry that owns
// the code -> session mapping.
package session

import "time"

// MaxParticipants caps a session at a pair. A third join is rejected, not
// queued.
const MaxParticipants = 2

type State int

const (
	StateWaiting State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Session is a waiting single or matched pair of participants. Participant
// order assigns roles: index 0 is the host. All fields are mutated only by
// the broker loop after creation.
type Session struct {
	Code         string
	Participants []*Conn
	State        State
	CreatedAt    time.Time
}

func New(code string, host *Conn) *Session {
	return &Session{
		Code:         code,
		Participants: []*Conn{host},
		State:        StateWaiting,
		CreatedAt:    time.Now(),
	}
}

func (s *Session) Full() bool { return len(s.Participants) >= MaxParticipants }

// Others returns every participant except from.
func (s *Session) Others(from *Conn) []*Conn {
	out := make([]*Conn, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p != from {
			out = append(out, p)
		}
	}
	return out
}
