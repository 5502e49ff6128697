package wshub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mb0/drill/hub"
	"github.com/mb0/drill/log"
)

// Config configures the websocket transport.
type Config struct {
	Log log.Logger
	*websocket.Upgrader
}

// Serve returns a handler that upgrades requests to websocket connections,
// signs them on to hub h and routes their messages until they disconnect.
func Serve(h *hub.Hub, conf *Config) http.HandlerFunc {
	var c Config
	if conf != nil {
		c = *conf
	}
	if c.Log == nil {
		c.Log = log.Root
	}
	if c.Upgrader == nil {
		c.Upgrader = &websocket.Upgrader{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		wc, err := c.Upgrade(w, r, nil)
		if err != nil {
			c.Log.Error("wshub upgrade failed", "err", err)
			return
		}
		cc := newConn(hub.NextID(), wc, h.Chan(), make(chan *hub.Msg, 32), c.Log)
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		hub.Signon(h, cc)
		go cc.write(t)
		err = cc.read()
		hub.Signoff(h, cc)
		if err != nil {
			c.Log.Error("wshub read failed", "id", cc.id, "err", err)
		}
	}
}
