package hub

import (
	"reflect"
	"regexp"
	"testing"
	"time"
)

func TestHubReq(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run(RouterFunc(func(m *Msg) {
			if m.Subj == "echo" {
				m.From.Chan() <- &Msg{From: h, Subj: m.Subj, Tok: m.Tok, Data: m.Data}
			}
		}))
		close(done)
	}()
	res, err := Req(h, &Msg{Subj: "echo", Data: "hi"}, time.Second)
	if err != nil {
		t.Fatalf("req error: %v", err)
	}
	if res.Subj != "echo" || res.Data != "hi" {
		t.Errorf("want echo hi got %s %v", res.Subj, res.Data)
	}
	_, err = Req(h, &Msg{Subj: "void"}, 10*time.Millisecond)
	if err == nil {
		t.Errorf("want timeout error")
	}
	h.Chan() <- nil
	<-done
}

func TestHubSignon(t *testing.T) {
	h := NewHub()
	var subjs []string
	done := make(chan struct{})
	go func() {
		h.Run(RouterFunc(func(m *Msg) { subjs = append(subjs, m.Subj) }))
		close(done)
	}()
	ch := make(chan *Msg, 1)
	c := NewChanConn(NextID(), ch)
	Signon(h, c)
	Signoff(h, c)
	if m := <-ch; m != nil {
		t.Errorf("want nil message after sign-off got %v", m)
	}
	h.Chan() <- nil
	<-done
	if want := []string{SubjSignon, SubjSignoff}; !reflect.DeepEqual(subjs, want) {
		t.Errorf("want subjects %v got %v", want, subjs)
	}
}

func TestFilters(t *testing.T) {
	var got []string
	rec := RouterFunc(func(m *Msg) { got = append(got, m.Subj) })
	rs := Routers{
		NewMatchFilter(rec, "a"),
		NewPrefixFilter(rec, "b."),
		&RegexpFilter{rec, regexp.MustCompile(`^c$`)},
	}
	for _, subj := range []string{"a", "b.x", "c", "d", "ab"} {
		rs.Route(&Msg{Subj: subj})
	}
	if want := []string{"a", "b.x", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("want routed %v got %v", want, got)
	}
}

func TestServices(t *testing.T) {
	s := Services{"ping": ServiceFunc(func(m *Msg) (interface{}, error) {
		return "pong", nil
	})}
	ch := make(chan *Msg, 1)
	c := NewChanConn(-1, ch)
	err := s.Handle(&Msg{From: c, Subj: "ping", Tok: []byte("7")}, c)
	if err != nil {
		t.Fatalf("handle error: %v", err)
	}
	res := <-ch
	if res.Data != "pong" || string(res.Tok) != "7" {
		t.Errorf("want pong with token 7 got %v %s", res.Data, res.Tok)
	}
	err = s.Handle(&Msg{From: c, Subj: "nope"}, c)
	if err == nil {
		t.Errorf("want error for unknown subject")
	}
}

func TestServicesReply(t *testing.T) {
	s := Services{"void": ServiceFunc(func(m *Msg) (interface{}, error) {
		return nil, nil
	})}
	ch := make(chan *Msg, 1)
	c := NewChanConn(-1, ch)
	err := s.Handle(&Msg{From: c, Subj: "void"}, c)
	if err != nil {
		t.Fatalf("handle error: %v", err)
	}
	select {
	case m := <-ch:
		t.Errorf("want no reply for nil data got %v", m)
	default:
	}
}
