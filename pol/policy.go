// Package pol provides a simple role based access control system.
package pol

import "github.com/mb0/xelf/cor"

// Policy checks whether a subject may execute an action.
type Policy interface {
	Police(subj, action string) error
}

// Rules implements a role based policy with allow and deny lists.
type Rules struct{ roles map[string]*role }

func NewRules() *Rules { return &Rules{roles: make(map[string]*role)} }

// AddRole registers a role. Roles with def set may execute all actions that
// are not explicitly denied.
func (p *Rules) AddRole(name string, def bool) *Rules {
	p.role(name).def = def
	return p
}

// AddMember makes subj a member of group, inheriting its allow and deny
// lists.
func (p *Rules) AddMember(subj, group string) *Rules {
	s := p.role(subj)
	s.roles = append(s.roles, p.role(group))
	return p
}

// Allow adds an action to the allow list of subj.
func (p *Rules) Allow(subj, action string) *Rules {
	s := p.role(subj)
	s.allow = append(s.allow, action)
	return p
}

// Deny adds an action to the deny list of subj.
func (p *Rules) Deny(subj, action string) *Rules {
	s := p.role(subj)
	s.deny = append(s.deny, action)
	return p
}

func (p *Rules) Police(subj, action string) error {
	s := p.roles[subj]
	if s == nil {
		return cor.Errorf("subject %q is unknown", subj)
	}
	if !s.def && !s.allowed(action) {
		return cor.Errorf("subject %q is not allowed to %q", subj, action)
	}
	if s.denied(action) {
		return cor.Errorf("subject %q is denied to %q", subj, action)
	}
	return nil
}

func (p *Rules) role(sub string) (s *role) {
	if s = p.roles[sub]; s == nil {
		s = &role{name: sub}
		p.roles[sub] = s
	}
	return s
}

type role struct {
	name  string
	def   bool
	allow []string
	deny  []string
	roles []*role
}

func (s *role) allowed(act string) bool {
	for _, a := range s.allow {
		if act == a {
			return true
		}
	}
	for _, r := range s.roles {
		if r.allowed(act) {
			return true
		}
	}
	return false
}

func (s *role) denied(act string) bool {
	for _, a := range s.deny {
		if act == a {
			return true
		}
	}
	for _, r := range s.roles {
		if r.denied(act) {
			return true
		}
	}
	return false
}
