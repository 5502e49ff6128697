package rpt_test

import (
	"strings"
	"testing"

	"github.com/mb0/drill/rpt"
	"github.com/mb0/drill/rpt/rpttest"
)

func TestReadPages(t *testing.T) {
	tab := rpttest.Must(rpttest.Pages())
	if tab.Name != "pages" {
		t.Errorf("want name pages got %s", tab.Name)
	}
	if tab.Len() != 4 {
		t.Errorf("want 4 rows got %d", tab.Len())
	}
	docs := tab.Find("docs")
	if docs == nil {
		t.Fatalf("docs row not found")
	}
	if docs.Sub.None() || docs.Sub.Tab == nil {
		t.Fatalf("docs row has no sub table")
	}
	if docs.Sub.Tab.Len() != 3 {
		t.Errorf("want 3 docs sub rows got %d", docs.Sub.Tab.Len())
	}
	idx := tab.Find("index")
	if idx == nil {
		t.Fatalf("index row not found")
	}
	if !idx.Sub.None() {
		t.Errorf("index row should be a leaf")
	}
	if got := idx.Col("hits").String(); got != "210" {
		t.Errorf("want 210 hits got %s", got)
	}
	if tab.Find("nosuch") != nil {
		t.Errorf("unexpected row for unknown label")
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []string{
		`{rows:[]}`,
		`{name:'one' rows:[{label:'a' cols:{n:1}}]}`,
		rpttest.PagesRaw,
		rpttest.TitlesRaw,
	}
	for _, raw := range tests {
		tab, err := rpt.Read(strings.NewReader(raw))
		if err != nil {
			t.Errorf("read %s failed: %v", raw, err)
			continue
		}
		want := tab.String()
		back, err := rpt.Read(strings.NewReader(want))
		if err != nil {
			t.Errorf("reread %s failed: %v", want, err)
			continue
		}
		if got := back.String(); got != want {
			t.Errorf("want %s got %s", want, got)
		}
	}
}

func TestReadMonths(t *testing.T) {
	col := rpttest.MustCol(rpttest.Months())
	if len(col) != 2 {
		t.Fatalf("want 2 spans got %d", len(col))
	}
	keys := col.Keys()
	if keys[0] != "2020-01-01" || keys[1] != "2020-02-01" {
		t.Errorf("unexpected keys %v", keys)
	}
	s, ok := col.Get("2020-02-01")
	if !ok {
		t.Fatalf("feb span not found")
	}
	if s.Per.Start != "2020-02-01" {
		t.Errorf("want feb start got %s", s.Per.Start)
	}
	promo := s.Tab.Find("promo")
	if promo == nil || promo.Sub.None() {
		t.Fatalf("promo row with sub expected")
	}
	want := col.String()
	back, err := rpt.ReadCollection(strings.NewReader(want))
	if err != nil {
		t.Fatalf("reread collection failed: %v", err)
	}
	if got := back.String(); got != want {
		t.Errorf("want %s got %s", want, got)
	}
}

func TestRowMeta(t *testing.T) {
	tab, err := rpt.Read(strings.NewReader(`{rows:[{label:'a' flag:true}]}`))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	r := tab.Find("a")
	if r == nil || r.Meta == nil {
		t.Fatalf("row with meta expected")
	}
	l, err := r.Meta.Key("flag")
	if err != nil {
		t.Fatalf("meta key failed: %v", err)
	}
	if l.String() != "true" {
		t.Errorf("want true got %s", l)
	}
}
