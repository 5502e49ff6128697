package archpgx

import (
	"testing"

	"github.com/jackc/pgx"
	"github.com/mb0/drill/arch"
	"github.com/mb0/drill/rpt"
	"github.com/mb0/drill/rpt/rpttest"
	"github.com/mb0/drill/sel"
)

const dsn = `host=/var/run/postgresql dbname=drill`

func TestBackend(t *testing.T) {
	db, err := Open(dsn, nil)
	if err != nil {
		t.Skipf("connect to postgres: %v", err)
	}
	defer setup(t, db)()
	b := New(db)
	mo := rpttest.MustCol(rpttest.Months())
	err = b.Save("months", mo)
	if err != nil {
		t.Fatalf("save months error: %+v", err)
	}
	keys, err := b.Keys()
	if err != nil {
		t.Fatalf("keys error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "months" {
		t.Fatalf("want keys [months] got %v", keys)
	}
	c, err := b.Collection("months")
	if err != nil {
		t.Fatalf("collection error: %v", err)
	}
	if len(c) != 2 || c[0].Per.Key != "2020-01-01" || c[1].Per.Key != "2020-02-01" {
		t.Fatalf("unexpected spans %v", c.Keys())
	}
	if c[1].Per.Label != "February 2020" {
		t.Errorf("want period label got %q", c[1].Per.Label)
	}
	feb := c[1].Tab
	if feb.Len() != 2 {
		t.Fatalf("want two february rows got %d", feb.Len())
	}
	promo := feb.Find("promo")
	if promo == nil || promo.Sub.ID == 0 || promo.Sub.Tab != nil {
		t.Fatalf("want promo row with sub reference got %v", promo)
	}
	if got := promo.Cols.String(); got != `{hits:25}` {
		t.Errorf("want promo cols {hits:25} got %s", got)
	}
	sub, err := b.LoadSub(promo, "")
	if err != nil {
		t.Fatalf("load promo sub error: %v", err)
	}
	if sub == nil || sub.Find("signup") == nil {
		t.Fatalf("want signup in promo sub got %v", sub)
	}
	idx := feb.Find("index")
	if idx == nil {
		t.Fatalf("want february index row")
	}
	if sub, err := b.LoadSub(idx, ""); sub != nil || err != nil {
		t.Errorf("want no index sub got %v error %v", sub, err)
	}
	r := sel.Resolver{Load: b}
	res, err := r.Resolve(c, "", "promo>signup")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	rc, ok := res.(rpt.Collection)
	if !ok || len(rc) != 2 {
		t.Fatalf("unexpected resolve result %v", res)
	}
	if rc[0].Tab.Len() != 0 || rc[1].Tab.Len() != 1 {
		t.Fatalf("unexpected resolved collection %s", rc)
	}
	hit := rc[1].Tab.Rows[0]
	if hit.Label != "signup" || hit.Col("hits").String() != "9" {
		t.Errorf("want signup row got %s", hit)
	}
}

func TestBackendVersions(t *testing.T) {
	db, err := Open(dsn, nil)
	if err != nil {
		t.Skipf("connect to postgres: %v", err)
	}
	defer setup(t, db)()
	b := New(db)
	mo := rpttest.MustCol(rpttest.Months())
	err = b.Save("months", mo)
	if err != nil {
		t.Fatalf("save months error: %+v", err)
	}
	v1 := version(t, b, "months")
	if v1.Vers != 1 {
		t.Fatalf("want vers 1 got %d", v1.Vers)
	}
	err = b.Save("months", mo)
	if err != nil {
		t.Fatalf("save months again error: %+v", err)
	}
	v2 := version(t, b, "months")
	if v2.Vers != 1 || v2.Hash != v1.Hash {
		t.Fatalf("want unchanged version got %d %s", v2.Vers, v2.Hash)
	}
	mo[0].Tab.Add(&rpt.Row{Label: "extra"})
	err = b.Save("months", mo)
	if err != nil {
		t.Fatalf("save changed months error: %+v", err)
	}
	v3 := version(t, b, "months")
	if v3.Vers != 2 || v3.Hash == v1.Hash {
		t.Fatalf("want bumped version got %d %s", v3.Vers, v3.Hash)
	}
}

func TestBackendErrs(t *testing.T) {
	db, err := Open(dsn, nil)
	if err != nil {
		t.Skipf("connect to postgres: %v", err)
	}
	defer setup(t, db)()
	b := New(db)
	_, err = b.Collection("missing")
	if err != arch.ErrNoStream {
		t.Errorf("want no stream error got %v", err)
	}
	mo := rpttest.MustCol(rpttest.Months())
	err = b.Save("months", mo)
	if err != nil {
		t.Fatalf("save months error: %+v", err)
	}
	c, err := b.Collection("months")
	if err != nil {
		t.Fatalf("collection error: %v", err)
	}
	// spans read from the backend hold sub references and must be
	// loaded before they can be written again
	err = b.Save("copy", c)
	if err == nil {
		t.Errorf("want save error for unresolved sub references")
	}
	full, err := arch.Materialize(b, c)
	if err != nil {
		t.Fatalf("materialize error: %v", err)
	}
	err = b.Save("copy", full)
	if err != nil {
		t.Errorf("save materialized copy error: %+v", err)
	}
	if _, err = b.Table("months", "2031-01-01"); err == nil {
		t.Errorf("want error for unknown period key")
	}
}

func version(t *testing.T, b *Backend, name string) arch.Version {
	mf, err := b.Versions()
	if err != nil {
		t.Fatalf("versions error: %v", err)
	}
	v, ok := mf.Get(name)
	if !ok {
		t.Fatalf("want version for %s in %v", name, mf)
	}
	return v
}

func setup(t *testing.T, db *pgx.ConnPool) func() {
	err := CreateSchema(db)
	if err != nil {
		t.Fatalf("create schema error: %v", err)
	}
	return func() {
		err := DropSchema(db)
		if err != nil {
			t.Errorf("drop schema error: %v", err)
		}
	}
}
