package wshub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mb0/drill/hub"
	"github.com/mb0/drill/log"
)

// TokenProvider supplies auth headers for client connections.
type TokenProvider interface {
	Token(url string) (http.Header, error)
	ClearToken(url string) error
}

// Client is a hub conn that connects to a remote hub over websocket.
type Client struct {
	url  string
	id   int64
	send chan *hub.Msg
	*websocket.Dialer
	TokenProvider
	Log log.Logger
}

// NewClient returns a new client for a websocket url.
func NewClient(url string) *Client {
	return &Client{url: url, id: hub.NextID(), send: make(chan *hub.Msg, 32)}
}

func (c *Client) ID() int64             { return c.id }
func (c *Client) Chan() chan<- *hub.Msg { return c.send }

// Connect dials the remote hub and blocks reading received messages into r
// until the connection fails or closes. Messages sent to the client chan are
// written to the remote hub. Sending a nil message stops the writer and
// closes the connection.
func (c *Client) Connect(r chan<- *hub.Msg) error {
	c.init()
	hdr, err := c.Token(c.url)
	if err != nil {
		return err
	}
	wc, _, err := c.Dial(c.url, hdr)
	if err != nil {
		c.ClearToken(c.url)
		return err
	}
	cc := newConn(c.id, wc, r, c.send, c.Log)
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	r <- &hub.Msg{From: c, Subj: hub.SubjSignon}
	go cc.write(t)
	err = cc.read()
	r <- &hub.Msg{From: c, Subj: hub.SubjSignoff}
	return err
}

func (c *Client) init() {
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	if c.Log == nil {
		c.Log = log.Root
	}
	if c.TokenProvider == nil {
		c.TokenProvider = (*nilProvider)(nil)
	}
}

type nilProvider struct{}

func (*nilProvider) Token(string) (http.Header, error) { return nil, nil }
func (*nilProvider) ClearToken(string) error           { return nil }
