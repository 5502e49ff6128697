package rpt

import (
	"io"

	"github.com/mb0/xelf/bfr"
	"github.com/mb0/xelf/cor"
	"github.com/mb0/xelf/lex"
	"github.com/mb0/xelf/lit"
)

func (t *Table) String() string { return bfr.String(t) }
func (t *Table) WriteBfr(b *bfr.Ctx) error {
	b.WriteByte('{')
	if t.Name != "" {
		b.WriteString("name:")
		b.Quote(t.Name)
		b.WriteByte(' ')
	}
	b.WriteString("rows:[")
	for i, r := range t.Rows {
		if i > 0 {
			b.WriteByte(' ')
		}
		err := r.WriteBfr(b)
		if err != nil {
			return err
		}
	}
	b.WriteString("]}")
	return nil
}

func (r *Row) String() string { return bfr.String(r) }
func (r *Row) WriteBfr(b *bfr.Ctx) error {
	b.WriteString("{label:")
	b.Quote(r.Label)
	err := writeDict(b, "cols", r.Cols)
	if err != nil {
		return err
	}
	err = writeDict(b, "meta", r.Meta)
	if err != nil {
		return err
	}
	if !r.Sub.None() {
		b.WriteString(" sub:")
		if r.Sub.Tab != nil {
			err = r.Sub.Tab.WriteBfr(b)
			if err != nil {
				return err
			}
		} else {
			b.Fmt("%d", r.Sub.ID)
		}
	}
	b.WriteByte('}')
	return nil
}

func (p Period) WriteBfr(b *bfr.Ctx) error {
	b.WriteString("{key:")
	b.Quote(p.Key)
	if p.Start != "" {
		b.WriteString(" start:")
		b.Quote(p.Start)
	}
	if p.Label != "" {
		b.WriteString(" label:")
		b.Quote(p.Label)
	}
	b.WriteByte('}')
	return nil
}

func (s Span) WriteBfr(b *bfr.Ctx) error {
	b.WriteString("{per:")
	err := s.Per.WriteBfr(b)
	if err != nil {
		return err
	}
	b.WriteString(" tab:")
	tab := s.Tab
	if tab == nil {
		tab = &Table{}
	}
	err = tab.WriteBfr(b)
	if err != nil {
		return err
	}
	b.WriteByte('}')
	return nil
}

func (c Collection) String() string { return bfr.String(c) }
func (c Collection) WriteBfr(b *bfr.Ctx) error {
	b.WriteByte('[')
	for i, s := range c {
		if i > 0 {
			b.WriteByte(' ')
		}
		err := s.WriteBfr(b)
		if err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func writeDict(b *bfr.Ctx, key string, d *lit.Dict) error {
	if d == nil || len(d.List) == 0 {
		return nil
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte(':')
	return d.WriteBfr(b)
}

// ParseTable parses l as report table.
func ParseTable(l lit.Lit) (*Table, error) {
	d, ok := l.(*lit.Dict)
	if !ok {
		return nil, cor.Errorf("expect table dict got %T", l)
	}
	t := &Table{}
	return t, t.FromDict(d)
}

func char(x lit.Keyed) (string, error) {
	ch, ok := x.Lit.(lit.Character)
	if !ok {
		return "", cor.Errorf("expect text for %q got %T", x.Key, x.Lit)
	}
	return ch.Char(), nil
}

func (t *Table) FromDict(d *lit.Dict) (err error) {
	for _, x := range d.List {
		switch x.Key {
		case "name":
			t.Name, err = char(x)
		case "rows":
			idx, ok := x.Lit.(lit.Indexer)
			if !ok {
				return cor.Errorf("expect indexer got %T", x.Lit)
			}
			if len(t.Rows) == 0 {
				t.Rows = make([]*Row, 0, idx.Len())
			}
			err = idx.IterIdx(func(i int, el lit.Lit) error {
				rd, ok := el.(*lit.Dict)
				if !ok {
					return cor.Errorf("expect row dict got %T", el)
				}
				var r Row
				err := r.FromDict(rd)
				t.Rows = append(t.Rows, &r)
				return err
			})
		default:
			return cor.Errorf("unexpected table key %q", x.Key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Row) FromDict(d *lit.Dict) (err error) {
	for _, x := range d.List {
		switch x.Key {
		case "label":
			r.Label, err = char(x)
		case "cols":
			cd, ok := x.Lit.(*lit.Dict)
			if !ok {
				return cor.Errorf("expect cols dict got %T", x.Lit)
			}
			r.Cols = cd
		case "meta":
			md, ok := x.Lit.(*lit.Dict)
			if !ok {
				return cor.Errorf("expect meta dict got %T", x.Lit)
			}
			r.Meta = md
		case "sub":
			switch v := x.Lit.(type) {
			case lit.Numeric:
				r.Sub.ID = int64(v.Num())
			case *lit.Dict:
				t := &Table{}
				err = t.FromDict(v)
				r.Sub.Tab = t
			default:
				return cor.Errorf("unexpected sub value %T", x.Lit)
			}
		default:
			err = r.SetMeta(x.Key, x.Lit)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Period) FromDict(d *lit.Dict) (err error) {
	for _, x := range d.List {
		switch x.Key {
		case "key":
			p.Key, err = char(x)
		case "start":
			p.Start, err = char(x)
		case "label":
			p.Label, err = char(x)
		default:
			return cor.Errorf("unexpected period key %q", x.Key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseSpan parses l as period span.
func ParseSpan(l lit.Lit) (s Span, err error) {
	d, ok := l.(*lit.Dict)
	if !ok {
		return s, cor.Errorf("expect span dict got %T", l)
	}
	for _, x := range d.List {
		switch x.Key {
		case "per":
			pd, ok := x.Lit.(*lit.Dict)
			if !ok {
				return s, cor.Errorf("expect period dict got %T", x.Lit)
			}
			err = s.Per.FromDict(pd)
		case "tab":
			td, ok := x.Lit.(*lit.Dict)
			if !ok {
				return s, cor.Errorf("expect table dict got %T", x.Lit)
			}
			t := &Table{}
			err = t.FromDict(td)
			s.Tab = t
		default:
			return s, cor.Errorf("unexpected span key %q", x.Key)
		}
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

// ParseCollection parses l as collection of period spans.
func ParseCollection(l lit.Lit) (Collection, error) {
	idx, ok := l.(lit.Indexer)
	if !ok {
		return nil, cor.Errorf("expect span list got %T", l)
	}
	c := make(Collection, 0, idx.Len())
	err := idx.IterIdx(func(i int, el lit.Lit) error {
		s, err := ParseSpan(el)
		if err != nil {
			return err
		}
		c = append(c, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Read parses a single table literal from r.
func Read(r io.Reader) (*Table, error) {
	l, err := scan(r)
	if err != nil {
		return nil, err
	}
	return ParseTable(l)
}

// ReadCollection parses a single collection literal from r.
func ReadCollection(r io.Reader) (Collection, error) {
	l, err := scan(r)
	if err != nil {
		return nil, err
	}
	return ParseCollection(l)
}

func scan(r io.Reader) (lit.Lit, error) {
	x := lex.New(r)
	tr, err := x.Tree()
	if err != nil {
		return nil, err
	}
	return lit.Parse(tr)
}
