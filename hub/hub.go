// Package hub provides a transport agnostic message hub to route requests
// between connected participants.
package hub

import "sync"

const (
	SubjSignon  = "+"
	SubjSignoff = "-"
)

// Msg is the unit of communication passed between connections.
//
// From and subj must always be set. Tok is an opaque token the origin can use
// to match responses to its requests, it is passed along unprocessed. The body
// is optional, depending on the subject, and is represented by raw bytes, a
// typed data value, or both. The body type should not vary for the same
// subject, other than between request and response. Transports choose a
// serialization format for data if raw is empty, while the participant that
// ultimately handles a subject parses raw bodies it receives. In-process
// messages use data to avoid serialization altogether.
type Msg struct {
	// From is the connection this message originates from.
	From Conn
	// Subj is the message header used for routing and body type detection.
	Subj string
	Tok  []byte
	Raw  []byte
	Data interface{}
}

// Router routes received messages to connections or other handlers.
type Router interface{ Route(*Msg) }

// Conn is a participant connected to a hub.
//
// A conn can be a connected client of any kind, a service, the hub itself, or
// a one-off request. Receivers of a message may hold on to the sender conn to
// push messages later.
type Conn interface {
	// ID returns the connection identifier. The hub itself has id 0,
	// transient conns use -1 and all other conns a positive id.
	ID() int64
	// Chan returns the unchanging receiver channel of this conn. The hub
	// sends a nil message to the channel after the conn signed off.
	Chan() chan<- *Msg
}

// Hub is the central conn that tracks sign-ons and routes all messages. It
// implements a conn with id 0.
//
// Transports accept connections, validate and sign them on, and forward their
// messages to the hub. Transient conns with id -1 skip sign-on, they can only
// be responded to directly and must not be held on to.
type Hub struct {
	sync.Mutex
	cmap map[int64]Conn
	mque chan *Msg
}

// NewHub creates and returns a new hub.
func NewHub() *Hub {
	return &Hub{
		cmap: make(map[int64]Conn, 64),
		mque: make(chan *Msg, 128),
	}
}

func (h *Hub) ID() int64         { return 0 }
func (h *Hub) Chan() chan<- *Msg { return h.mque }

// Run reads and routes messages sent to the hub with router r, usually in its
// own goroutine. It returns after it read a nil message.
func (h *Hub) Run(r Router) {
	for m := range h.mque {
		if m == nil {
			break
		}
		if m.Subj == SubjSignon {
			h.Lock()
			h.cmap[m.From.ID()] = m.From
			h.Unlock()
		}
		r.Route(m)
		if m.Subj == SubjSignoff {
			h.Lock()
			delete(h.cmap, m.From.ID())
			h.Unlock()
			m.From.Chan() <- nil
		}
	}
}

// Signon sends a sign-on message for c to hub h.
func Signon(h *Hub, c Conn) { h.Chan() <- &Msg{From: c, Subj: SubjSignon} }

// Signoff sends a sign-off message for c to hub h.
func Signoff(h *Hub, c Conn) { h.Chan() <- &Msg{From: c, Subj: SubjSignoff} }
