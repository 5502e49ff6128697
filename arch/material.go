package arch

import (
	"github.com/mb0/drill/rpt"
	"github.com/mb0/drill/sel"
	"github.com/mb0/xelf/lit"
)

// Materialize returns a deep copy of c with all nested tables resolved
// through loader l. Row cols and meta dicts are copied as well, so entries
// set on result rows never write through to the source. Backends that store
// nested tables out of line return rows with unresolved sub references. Those
// collections must be materialized before they can be archived or saved to
// another backend.
func Materialize(l sel.Loader, c rpt.Collection) (rpt.Collection, error) {
	res := make(rpt.Collection, 0, len(c))
	for _, s := range c {
		t, err := materialTab(l, s.Tab, s.Per.Start)
		if err != nil {
			return nil, err
		}
		res = append(res, rpt.Span{Per: s.Per, Tab: t})
	}
	return res, nil
}

func materialTab(l sel.Loader, t *rpt.Table, date string) (*rpt.Table, error) {
	if t == nil {
		return nil, nil
	}
	res := t.Empty()
	for _, r := range t.Rows {
		c := *r
		c.Cols = copyDict(r.Cols)
		c.Meta = copyDict(r.Meta)
		if !c.Sub.None() {
			sub, err := l.LoadSub(&c, date)
			if err != nil {
				return nil, err
			}
			sub, err = materialTab(l, sub, date)
			if err != nil {
				return nil, err
			}
			c.Sub = rpt.Ref{Tab: sub}
		}
		res.Add(&c)
	}
	return res, nil
}

func copyDict(d *lit.Dict) *lit.Dict {
	if d == nil {
		return nil
	}
	list := make([]lit.Keyed, len(d.List))
	copy(list, d.List)
	return &lit.Dict{List: list}
}
