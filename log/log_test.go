package log

import "testing"

func TestFormat(t *testing.T) {
	got := tfmt("DEB ", "msg", []interface{}{"k", 1}, nil)
	if got != "DEB msg k=1" {
		t.Errorf("want tagged format got %q", got)
	}
	l := (&Default{}).with("a", 1).with("b", 2)
	if got = tfmt("ERR ", "m", nil, l.Tags); got != "ERR m b=2 a=1" {
		t.Errorf("want latest tags first got %q", got)
	}
}

func TestTesting(t *testing.T) {
	l := Testing{TB: t}
	l.Debug("debug output", "tag", true)
	w := l.With("x", 1)
	d, ok := w.(*Testing)
	if !ok {
		t.Fatalf("want testing logger got %T", w)
	}
	if len(d.Tags) != 2 {
		t.Errorf("want two tag elements got %v", d.Tags)
	}
}
