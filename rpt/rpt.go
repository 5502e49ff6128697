package rpt

import (
	"github.com/mb0/xelf/lit"
)

// Row is one line of a report table. It has a display label used for lookups,
// a flat mapping of column keys to values and a mutable metadata mapping that
// consumers attach marker entries to. A row may own a nested table with
// finer grained rows, see Ref.
type Row struct {
	Label string    `json:"label"`
	Cols  *lit.Dict `json:"cols,omitempty"`
	Meta  *lit.Dict `json:"meta,omitempty"`
	Sub   Ref       `json:"sub,omitempty"`
}

// Ref points to the nested table of a row. The zero value marks a leaf row.
// A nested table is not necessarily materialized: ID alone refers to a table
// that must be loaded from a backend, while Tab holds an inline table.
type Ref struct {
	ID  int64  `json:"id,omitempty"`
	Tab *Table `json:"tab,omitempty"`
}

// None reports whether no nested table exists at all.
func (r Ref) None() bool { return r.ID == 0 && r.Tab == nil }

// SetMeta sets a metadata entry on the row, allocating the dict on first use.
func (r *Row) SetMeta(key string, el lit.Lit) error {
	if r.Meta == nil {
		r.Meta = &lit.Dict{}
	}
	_, err := r.Meta.SetKey(key, el)
	return err
}

// Col returns the column value for key or nil if the row has no such column.
func (r *Row) Col(key string) lit.Lit {
	if r.Cols == nil {
		return nil
	}
	l, err := r.Cols.Key(key)
	if err != nil {
		return nil
	}
	return l
}

// Table is an ordered report table. Row order is significant and lookups by
// label return the first match.
type Table struct {
	Name string `json:"name,omitempty"`
	Rows []*Row `json:"rows"`
}

// Find returns the first row whose label equals label or nil.
func (t *Table) Find(label string) *Row {
	if t != nil {
		for _, r := range t.Rows {
			if r.Label == label {
				return r
			}
		}
	}
	return nil
}

// Empty returns a new empty table of the same kind as t.
func (t *Table) Empty() *Table {
	if t == nil {
		return &Table{}
	}
	return &Table{Name: t.Name}
}

// Add appends row r to the table.
func (t *Table) Add(r *Row) { t.Rows = append(t.Rows, r) }

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Period describes one reporting period of a collection. Key is the unique
// period key within a collection, Start the period start date as iso date
// string used as date context when loading nested tables.
type Period struct {
	Key   string `json:"key"`
	Start string `json:"start,omitempty"`
	Label string `json:"label,omitempty"`
}

// Span pairs a period with the report table covering it.
type Span struct {
	Per Period `json:"per"`
	Tab *Table `json:"tab"`
}

// Collection is an ordered sequence of period spans of the same report.
type Collection []Span

// Get returns the span for the given period key and whether it was found.
func (c Collection) Get(key string) (Span, bool) {
	for _, s := range c {
		if s.Per.Key == key {
			return s, true
		}
	}
	return Span{}, false
}

// Keys returns the period keys in collection order.
func (c Collection) Keys() []string {
	res := make([]string, 0, len(c))
	for _, s := range c {
		res = append(res, s.Per.Key)
	}
	return res
}
