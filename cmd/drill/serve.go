package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mb0/drill/hub"
	"github.com/mb0/drill/hub/wshub"
	"github.com/mb0/drill/log"
	"github.com/mb0/drill/pol"
	"github.com/mb0/drill/srv"
	"github.com/mb0/drill/srv/auth"
	"github.com/mb0/xelf/cor"
)

func serve(args []string) error {
	src, err := source()
	if err != nil {
		return err
	}
	var conf srv.Config
	if len(args) > 0 {
		err = authConf(&conf, args[0])
		if err != nil {
			return err
		}
	}
	s := srv.New(conf)
	s.AddSite("", src)
	h := hub.NewHub()
	// log conn lifecycle and auth attempts, but never request bodies
	audit := hub.RouterFunc(func(m *hub.Msg) {
		log.Root.Debug("hub audit", "subj", m.Subj, "conn", m.From.ID())
	})
	go h.Run(hub.Routers{
		s.Router(h),
		hub.NewMatchFilter(audit, hub.SubjSignon, hub.SubjSignoff),
		hub.NewPrefixFilter(audit, "auth."),
	})
	http.Handle("/hub", wshub.Serve(h, nil))
	fmt.Printf("listening on ws://%s/hub\n", *addrFlag)
	return http.ListenAndServe(*addrFlag, nil)
}

// authConf reads a json user file and configures sessions and a policy that
// requires a login for all report subjects.
func authConf(conf *srv.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var users []srv.User
	err = json.NewDecoder(f).Decode(&users)
	if err != nil {
		return cor.Errorf("decoding user file %s: %w", path, err)
	}
	rules := pol.NewRules().AddRole("guest", false).
		Allow("guest", "auth.login").Allow("guest", "auth.logout")
	roles := map[string]bool{"guest": true}
	for _, u := range users {
		if u.Role == "" || roles[u.Role] {
			continue
		}
		roles[u.Role] = true
		rules.AddMember(u.Role, "guest")
		for _, subj := range []string{"rpt.vers", "rpt.get", "rpt.span", "rpt.sel"} {
			rules.Allow(u.Role, subj)
		}
	}
	conf.Users = users
	conf.Pol = rules
	conf.Sess = auth.NewSessions(time.Hour)
	return nil
}

func req(args []string) error {
	if len(args) < 2 {
		return cor.Error("usage: drill req <url> <subj> [<body>]")
	}
	c := wshub.NewClient(args[0])
	r := make(chan *hub.Msg, 8)
	done := make(chan error, 1)
	go func() { done <- c.Connect(r) }()
	c.Chan() <- &hub.Msg{Subj: args[1], Tok: []byte("1"),
		Raw: []byte(strings.Join(args[2:], " "))}
	for {
		select {
		case m := <-r:
			switch m.Subj {
			case hub.SubjSignon:
				continue
			case hub.SubjSignoff:
				return cor.Error("connection closed")
			case "err":
				return cor.Errorf("%s", m.Raw)
			}
			os.Stdout.Write(m.Raw)
			fmt.Println()
			c.Chan() <- nil
			return <-done
		case err := <-done:
			if err != nil {
				return err
			}
			return cor.Error("connection closed")
		case <-time.After(10 * time.Second):
			return cor.Error("request timeout")
		}
	}
}
