// Package sel narrows hierarchical report tables down to single rows matching
// label path queries like 'CategoryA>SubcategoryB>Item'. Queries are split on
// a separator into path segments and matched level by level against row
// labels, loading nested tables on demand through a backend loader.
package sel

import (
	"github.com/mb0/drill/rpt"
	"github.com/mb0/xelf/lit"
)

// IdxKey is the row metadata key recording the index of the query a result
// row was found for.
const IdxKey = "label_idx"

// Loader loads the nested table of a matched row on demand. The date context
// is an iso date string or empty. Implementations return a nil table and no
// error to signal that no nested table exists for the row.
type Loader interface {
	LoadSub(r *rpt.Row, date string) (*rpt.Table, error)
}

// Resolver holds the configuration for label path lookups. The zero value is
// usable and resolves materialized tables with exact label matching.
//
// Resolvers are stateless across calls and can be shared and reused, all
// state lives in the arguments and results of its methods.
type Resolver struct {
	// Sep separates path segments in queries, '>' when empty.
	Sep string
	// Spaced also tries variations with one leading space, for report
	// families that store labels space prefixed.
	Spaced bool
	// Clean canonicalizes a trimmed label into its stored form.
	// A nil func means labels are stored as given.
	Clean func(string) string
	// Decode reverses percent encoding of path segments,
	// url.QueryUnescape when nil.
	Decode func(string) (string, error)
	// Load provides nested tables during descent. A nil loader resolves
	// only sub tables that are already materialized on the row.
	Load Loader
}

// Resolve looks up one row per query label in v and returns the result.
//
// A report table yields a new table with at most one row per label, a
// collection is resolved span by span into a new collection with the same
// period keys in the same order. Any other value is returned unchanged.
// Lookup misses are skipped silently, failures of the decode or load
// collaborators abort the whole call.
func (r *Resolver) Resolve(v interface{}, date string, labels ...string) (interface{}, error) {
	switch t := v.(type) {
	case *rpt.Table:
		return r.Table(t, date, labels...)
	case rpt.Collection:
		return r.Collection(t, date, labels...)
	}
	return v, nil
}

// Collection resolves labels independently against each span of c, deriving
// the date context from the span's period start date. It returns a new
// collection with one result span per input span.
func (r *Resolver) Collection(c rpt.Collection, date string, labels ...string) (rpt.Collection, error) {
	res := make(rpt.Collection, 0, len(c))
	for _, s := range c {
		d := s.Per.Start
		if d == "" {
			d = date
		}
		tab, err := r.Table(s.Tab, d, labels...)
		if err != nil {
			return nil, err
		}
		res = append(res, rpt.Span{Per: s.Per, Tab: tab})
	}
	return res, nil
}

// Table resolves labels against tab and returns a new result table of the
// same kind. Result rows keep the input label order and are tagged with the
// zero based label index as metadata.
func (r *Resolver) Table(tab *rpt.Table, date string, labels ...string) (*rpt.Table, error) {
	res := tab.Empty()
	for i, q := range labels {
		row, err := r.lookup(tab, q, date)
		if err != nil {
			return nil, err
		}
		if row == nil {
			continue
		}
		err = row.SetMeta(IdxKey, lit.Int(i))
		if err != nil {
			return nil, err
		}
		res.Add(row)
	}
	return res, nil
}
