// Package srv provides the report lookup service served over a hub.
package srv

import (
	"html"
	"strings"
	"sync"

	"github.com/mb0/drill/arch"
	"github.com/mb0/drill/hub"
	"github.com/mb0/drill/log"
	"github.com/mb0/drill/pol"
	"github.com/mb0/drill/rpt"
	"github.com/mb0/drill/sel"
	"github.com/mb0/drill/srv/auth"
	"github.com/mb0/xelf/cor"
	"github.com/mb0/xelf/lit"
	"github.com/mb0/xelf/prx"
)

// Source serves report collections and nested tables for one site.
type Source interface {
	sel.Loader
	Collection(name string) (rpt.Collection, error)
	Table(name, key string) (*rpt.Table, error)
	Versions() (arch.Manifest, error)
}

// User is a service account with a bcrypt password hash and a policy role.
type User struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
	Role string `json:"role"`
}

// Config configures the report service.
type Config struct {
	Log   log.Logger
	Pol   pol.Policy     // nil allows every subject
	Sess  *auth.Sessions // nil disables login
	Sign  auth.Signer    // nil defaults to bcrypt
	Users []User
	Guest string // policy role for conns without login, "guest" when empty
}

// Server routes report and auth subjects for one or more sites.
//
// Stored report labels are html escaped, the resolver for rpt.sel cleans
// query labels the same way before matching.
type Server struct {
	Config
	sync.Mutex
	sites map[string]Source
	users map[string]User
	conns map[int64]string
}

// New returns a new server with the given configuration.
func New(conf Config) *Server {
	if conf.Log == nil {
		conf.Log = log.Root
	}
	if conf.Sign == nil {
		conf.Sign = &auth.Bcrypt{}
	}
	if conf.Guest == "" {
		conf.Guest = "guest"
	}
	s := &Server{Config: conf,
		sites: make(map[string]Source),
		users: make(map[string]User, len(conf.Users)),
		conns: make(map[int64]string),
	}
	for _, u := range conf.Users {
		s.users[u.Name] = u
	}
	return s
}

// AddSite registers src under the site name. The empty name is the default
// site used by requests without explicit site.
func (s *Server) AddSite(name string, src Source) *Server {
	s.sites[name] = src
	return s
}

// Router returns the hub router for this server that responds as conn from.
func (s *Server) Router(from hub.Conn) hub.Router {
	srvs := hub.Services{
		"rpt.vers":    hub.ServiceFunc(s.vers),
		"rpt.get":     hub.ServiceFunc(s.get),
		"rpt.span":    hub.ServiceFunc(s.span),
		"rpt.sel":     hub.ServiceFunc(s.sel),
		"auth.login":  hub.ServiceFunc(s.login),
		"auth.logout": hub.ServiceFunc(s.logout),
	}
	return hub.RouterFunc(func(m *hub.Msg) {
		switch m.Subj {
		case hub.SubjSignon:
			return
		case hub.SubjSignoff:
			s.drop(m.From.ID())
			return
		}
		err := s.police(m)
		if err == nil {
			err = srvs.Handle(m, from)
		}
		if err != nil {
			s.Log.Debug("drill serve failed", "subj", m.Subj, "err", err)
			m.From.Chan() <- &hub.Msg{From: from, Subj: "err", Tok: m.Tok,
				Data: lit.Str(err.Error())}
		}
	})
}

func (s *Server) police(m *hub.Msg) error {
	if s.Pol == nil {
		return nil
	}
	role := s.Guest
	s.Lock()
	user, ok := s.conns[m.From.ID()]
	s.Unlock()
	if ok {
		if u, ok := s.users[user]; ok && u.Role != "" {
			role = u.Role
		}
	}
	return s.Pol.Police(role, m.Subj)
}

func (s *Server) drop(id int64) {
	s.Lock()
	delete(s.conns, id)
	s.Unlock()
}

func (s *Server) site(name string) (Source, error) {
	src, ok := s.sites[name]
	if !ok {
		return nil, cor.Errorf("unknown site %q", name)
	}
	return src, nil
}

type siteReq struct {
	Site string `json:"site,omitempty"`
}

func (s *Server) vers(m *hub.Msg) (interface{}, error) {
	var req siteReq
	err := parseReq(m, &req)
	if err != nil {
		return nil, err
	}
	src, err := s.site(req.Site)
	if err != nil {
		return nil, err
	}
	mf, err := src.Versions()
	if err != nil {
		return nil, err
	}
	return mf, nil
}

type getReq struct {
	Site   string `json:"site,omitempty"`
	Report string `json:"report"`
}

func (s *Server) get(m *hub.Msg) (interface{}, error) {
	var req getReq
	err := parseReq(m, &req)
	if err != nil {
		return nil, err
	}
	src, err := s.site(req.Site)
	if err != nil {
		return nil, err
	}
	c, err := src.Collection(req.Report)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type spanReq struct {
	Site   string `json:"site,omitempty"`
	Report string `json:"report"`
	Key    string `json:"key"`
}

func (s *Server) span(m *hub.Msg) (interface{}, error) {
	var req spanReq
	err := parseReq(m, &req)
	if err != nil {
		return nil, err
	}
	src, err := s.site(req.Site)
	if err != nil {
		return nil, err
	}
	t, err := src.Table(req.Report, req.Key)
	if err != nil {
		return nil, err
	}
	return t, nil
}

type selReq struct {
	Site   string   `json:"site,omitempty"`
	Report string   `json:"report"`
	Key    string   `json:"key,omitempty"`
	Date   string   `json:"date,omitempty"`
	Spaced bool     `json:"spaced,omitempty"`
	Labels []string `json:"labels"`
}

func (s *Server) sel(m *hub.Msg) (interface{}, error) {
	var req selReq
	err := parseReq(m, &req)
	if err != nil {
		return nil, err
	}
	src, err := s.site(req.Site)
	if err != nil {
		return nil, err
	}
	r := sel.Resolver{Spaced: req.Spaced, Clean: html.EscapeString, Load: src}
	if req.Key != "" {
		t, err := src.Table(req.Report, req.Key)
		if err != nil {
			return nil, err
		}
		return r.Resolve(t, req.Date, req.Labels...)
	}
	c, err := src.Collection(req.Report)
	if err != nil {
		return nil, err
	}
	return r.Resolve(c, req.Date, req.Labels...)
}

type loginReq struct {
	User  string `json:"user,omitempty"`
	Pass  string `json:"pass,omitempty"`
	Token string `json:"token,omitempty"`
}

// login authenticates the sender by password or session token and binds the
// session to its conn. Transient conns cannot hold sessions.
func (s *Server) login(m *hub.Msg) (interface{}, error) {
	if s.Sess == nil {
		return nil, cor.Error("login not supported")
	}
	if m.From.ID() < 0 {
		return nil, cor.Error("login requires a signed on conn")
	}
	var req loginReq
	err := parseReq(m, &req)
	if err != nil {
		return nil, err
	}
	var user, tok string
	if req.Token != "" {
		user, err = s.Sess.User(req.Token)
		if err != nil {
			return nil, err
		}
		tok = req.Token
	} else {
		u, ok := s.users[req.User]
		if ok {
			err = s.Sign.Verify(u.Hash, req.Pass)
		}
		if !ok || err != nil {
			return nil, cor.Error("unknown user or wrong password")
		}
		user = u.Name
		tok, err = s.Sess.New(user)
		if err != nil {
			return nil, err
		}
	}
	s.Lock()
	s.conns[m.From.ID()] = user
	s.Unlock()
	return &lit.Dict{List: []lit.Keyed{
		{Key: "user", Lit: lit.Str(user)},
		{Key: "token", Lit: lit.Str(tok)},
	}}, nil
}

func (s *Server) logout(m *hub.Msg) (interface{}, error) {
	if s.Sess == nil {
		return nil, cor.Error("login not supported")
	}
	var req loginReq
	err := parseReq(m, &req)
	if err != nil {
		return nil, err
	}
	if req.Token != "" {
		s.Sess.Delete(req.Token)
	}
	s.drop(m.From.ID())
	return lit.Bool(true), nil
}

func parseReq(m *hub.Msg, v interface{}) error {
	if len(m.Raw) == 0 {
		return nil
	}
	l, err := lit.Read(strings.NewReader(string(m.Raw)))
	if err != nil {
		return cor.Errorf("parse %s request: %w", m.Subj, err)
	}
	return prx.AssignTo(l, v)
}
