package wshub

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mb0/drill/hub"
	"github.com/mb0/drill/log"
	"github.com/mb0/drill/rpt"
	"github.com/mb0/xelf/bfr"
)

func TestWriteMsg(t *testing.T) {
	tests := []struct {
		msg  hub.Msg
		want string
	}{
		{hub.Msg{Subj: "a"}, "a"},
		{hub.Msg{Subj: "a", Tok: []byte("1")}, "a#1"},
		{hub.Msg{Subj: "a", Raw: []byte("body")}, "a\nbody"},
		{hub.Msg{Subj: "a", Tok: []byte("1"), Raw: []byte("{x:1}")}, "a#1\n{x:1}"},
		{hub.Msg{Subj: "a", Data: "hi"}, "a\n\"hi\"\n"},
		{hub.Msg{Subj: "per", Data: rpt.Period{Key: "2020"}}, "per\n{key:\"2020\"}"},
	}
	for _, test := range tests {
		b := bfr.Get()
		err := writeMsgTo(b, &test.msg)
		if err != nil {
			t.Errorf("write %q error: %v", test.want, err)
		} else if got := b.String(); got != test.want {
			t.Errorf("want %q got %q", test.want, got)
		}
		bfr.Put(b)
	}
}

func TestReadMsg(t *testing.T) {
	tests := []struct {
		raw, subj, tok, body string
		err                  bool
	}{
		{raw: "a", subj: "a"},
		{raw: "a#1", subj: "a", tok: "1"},
		{raw: "a\nbody", subj: "a", body: "body"},
		{raw: "a#1\n{x:1}", subj: "a", tok: "1", body: "{x:1}"},
		{raw: "", err: true},
		{raw: "#1\nbody", err: true},
	}
	for _, test := range tests {
		m, err := readMsg(strings.NewReader(test.raw))
		if test.err {
			if err == nil {
				t.Errorf("want error for %q", test.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("read %q error: %v", test.raw, err)
			continue
		}
		if m.Subj != test.subj || string(m.Tok) != test.tok || string(m.Raw) != test.body {
			t.Errorf("read %q got %s %s %s", test.raw, m.Subj, m.Tok, m.Raw)
		}
	}
}

func TestClientServe(t *testing.T) {
	h := hub.NewHub()
	go h.Run(hub.RouterFunc(func(m *hub.Msg) {
		if m.Subj == "echo" {
			m.From.Chan() <- &hub.Msg{From: h, Subj: m.Subj, Tok: m.Tok, Raw: m.Raw}
		}
	}))
	s := httptest.NewServer(Serve(h, nil))
	defer s.Close()
	c := NewClient("ws" + strings.TrimPrefix(s.URL, "http"))
	c.Log = &log.Testing{TB: t}
	r := make(chan *hub.Msg, 8)
	done := make(chan error, 1)
	go func() { done <- c.Connect(r) }()
	if m := recv(t, r); m.Subj != hub.SubjSignon {
		t.Fatalf("want sign-on got %s", m.Subj)
	}
	c.Chan() <- &hub.Msg{Subj: "echo", Tok: []byte("1"), Raw: []byte("hello")}
	m := recv(t, r)
	if m.Subj != "echo" || string(m.Tok) != "1" || string(m.Raw) != "hello" {
		t.Errorf("want echo hello got %s %s %s", m.Subj, m.Tok, m.Raw)
	}
	c.Chan() <- nil
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("want clean close got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for disconnect")
	}
	h.Chan() <- nil
}

func recv(t *testing.T, r chan *hub.Msg) *hub.Msg {
	select {
	case m := <-r:
		return m
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for message")
	}
	return nil
}
