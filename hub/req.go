package hub

import (
	"sync/atomic"
	"time"

	"github.com/mb0/xelf/cor"
)

// lastID holds the last conn id handed out. It must only be accessed as
// atomic primitive.
var lastID = new(int64)

// NextID returns a new unused normal conn id.
func NextID() int64 { return atomic.AddInt64(lastID, 1) }

// ChanConn is a channel based conn used for simple in-process participants.
type ChanConn struct {
	id int64
	ch chan *Msg
}

// NewChanConn returns a new channel conn with the given id and channel.
func NewChanConn(id int64, c chan *Msg) *ChanConn { return &ChanConn{id, c} }

func (c *ChanConn) ID() int64         { return c.id }
func (c *ChanConn) Chan() chan<- *Msg { return c.ch }

// Req sends req from a new transient conn to another conn and returns the
// first response, or an error if the conn closed or the timeout was reached.
func Req(to Conn, req *Msg, timeout time.Duration) (*Msg, error) {
	ch := make(chan *Msg, 1)
	req.From = NewChanConn(-1, ch)
	to.Chan() <- req
	select {
	case res := <-ch:
		if res == nil {
			return nil, cor.Error("conn closed")
		}
		return res, nil
	case <-time.After(timeout):
	}
	return nil, cor.Error("timeout")
}
