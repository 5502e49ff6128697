package pol

import "testing"

func TestRules(t *testing.T) {
	p := NewRules().
		AddRole("root", true).
		Deny("root", "auth.login").
		AddRole("staff", false).
		Allow("staff", "rpt.get").
		Allow("staff", "rpt.sel").
		AddMember("alice", "staff")
	tests := []struct {
		subj, act string
		ok        bool
	}{
		{"root", "rpt.get", true},
		{"root", "rpt.drop", true},
		{"root", "auth.login", false},
		{"staff", "rpt.get", true},
		{"staff", "rpt.sel", true},
		{"staff", "rpt.vers", false},
		{"alice", "rpt.get", true},
		{"alice", "rpt.vers", false},
		{"bob", "rpt.get", false},
	}
	for _, test := range tests {
		err := p.Police(test.subj, test.act)
		if test.ok && err != nil {
			t.Errorf("want %s to %s got %v", test.subj, test.act, err)
		}
		if !test.ok && err == nil {
			t.Errorf("want error for %s to %s", test.subj, test.act)
		}
	}
}
