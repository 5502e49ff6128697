// Package wshub provides a websocket transport for the hub package.
package wshub

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mb0/drill/hub"
	"github.com/mb0/drill/log"
	"github.com/mb0/xelf/bfr"
	"github.com/mb0/xelf/cor"
)

const (
	writeTimeout = 10 * time.Second
	pingPeriod   = 60 * time.Second
	closeGrace   = 100 * time.Millisecond
)

// conn pairs a websocket with the hub conn channels of one participant.
type conn struct {
	id    int64
	wc    *websocket.Conn
	route chan<- *hub.Msg
	send  chan *hub.Msg
	log   log.Logger
}

func newConn(id int64, wc *websocket.Conn, route chan<- *hub.Msg, send chan *hub.Msg,
	l log.Logger) *conn {
	if l == nil {
		l = log.Root
	}
	return &conn{id: id, wc: wc, route: route, send: send, log: l}
}

func (c *conn) ID() int64             { return c.id }
func (c *conn) Chan() chan<- *hub.Msg { return c.send }

// read reads and routes websocket messages until the connection closes. It
// returns nil if the remote end disconnected normally.
func (c *conn) read() error {
	for {
		op, r, err := c.wc.NextReader()
		if err != nil {
			if err == io.EOF || websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				return nil
			}
			return cor.Errorf("wshub next reader: %w", err)
		}
		if op == websocket.BinaryMessage {
			return cor.Error("wshub unexpected binary message")
		}
		if op != websocket.TextMessage {
			continue
		}
		m, err := readMsg(r)
		if err != nil {
			return cor.Errorf("wshub read message: %w", err)
		}
		m.From = c
		c.route <- m
	}
}

// write sends messages and pings until the send channel closes or delivers a
// nil message, then writes a close message and closes the websocket. The
// grace period lets the reader receive the close reply of the peer before
// the socket goes away under it.
func (c *conn) write(t *time.Ticker) {
	defer c.wc.Close()
Outer:
	for {
		select {
		case m, ok := <-c.send:
			if !ok || m == nil {
				break Outer
			}
			net, err := c.writeMsg(m)
			if err != nil {
				if net {
					return
				}
				c.log.Error("wshub marshal message", "subj", m.Subj, "err", err)
			}
		case <-t.C:
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := c.wc.WriteMessage(websocket.PingMessage, []byte{})
			if err != nil {
				return
			}
		}
	}
	c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.wc.WriteMessage(websocket.CloseMessage, msg)
	time.Sleep(closeGrace)
}

func (c *conn) writeMsg(m *hub.Msg) (net bool, err error) {
	b := bfr.Get()
	defer bfr.Put(b)
	err = writeMsgTo(b, m)
	if err != nil {
		return false, err
	}
	c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = c.wc.WriteMessage(websocket.TextMessage, b.Bytes())
	return err != nil, err
}

func readMsg(r io.Reader) (*hub.Msg, error) {
	b := bfr.Get()
	defer bfr.Put(b)

	_, err := b.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	var tok, body []byte
	head := b.Bytes()
	idx := bytes.IndexByte(head, '\n')
	if idx >= 0 {
		head, body = head[:idx], head[idx+1:]
	}
	idx = bytes.IndexByte(head, '#')
	if idx >= 0 {
		head, tok = head[:idx], head[idx+1:]
	}
	if len(head) == 0 {
		return nil, cor.Error("message without subject")
	}
	return &hub.Msg{
		Subj: string(head),
		Tok:  copyBytes(tok),
		Raw:  copyBytes(body),
	}, nil
}

func writeMsgTo(b bfr.B, m *hub.Msg) error {
	_, err := b.WriteString(m.Subj)
	if err != nil {
		return err
	}
	if len(m.Tok) != 0 {
		b.WriteByte('#')
		_, err = b.Write(m.Tok)
		if err != nil {
			return err
		}
	}
	if len(m.Raw) != 0 {
		b.WriteByte('\n')
		_, err = b.Write(m.Raw)
		return err
	}
	if m.Data != nil {
		b.WriteByte('\n')
		if w, ok := m.Data.(bfr.Writer); ok {
			return w.WriteBfr(&bfr.Ctx{B: b, JSON: true})
		}
		return json.NewEncoder(b).Encode(m.Data)
	}
	return nil
}

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	res := make([]byte, len(b))
	copy(res, b)
	return res
}
