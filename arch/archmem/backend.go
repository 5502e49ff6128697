// Package archmem provides an in-memory report backend serving lazy sub tables.
package archmem

import (
	"sort"

	"github.com/mb0/drill/arch"
	"github.com/mb0/drill/rpt"
	"github.com/mb0/drill/sel"
	"github.com/mb0/xelf/cor"
)

// Backend holds report collections and their nested tables in memory.
//
// Nested tables are held detached from their rows and are only handed out
// through the loader interface, the way a database backend would.
type Backend struct {
	arch.Manifest
	cols map[string]rpt.Collection
	subs map[int64]*rpt.Table
	last int64
}

var _ sel.Loader = (*Backend)(nil)

// New returns a new backend populated with the streams of dataset d.
func New(d *arch.Dataset) (*Backend, error) {
	b := &Backend{Manifest: d.Manifest}
	for _, s := range d.Streams {
		c, err := s.Spans()
		if err != nil {
			return nil, err
		}
		err = b.Add(s.Name(), c)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Keys returns all registered report names sorted by name.
func (b *Backend) Keys() ([]string, error) {
	res := make([]string, 0, len(b.cols))
	for key := range b.cols {
		res = append(res, key)
	}
	sort.Strings(res)
	return res, nil
}

// Versions returns the current manifest.
func (b *Backend) Versions() (arch.Manifest, error) { return b.Manifest, nil }

// Add registers the collection under the report name. All nested tables are
// indexed recursively and stripped from their rows, leaving reference ids.
// The collection is kept and served in that lazy form.
func (b *Backend) Add(name string, c rpt.Collection) error {
	if b.cols == nil {
		b.cols = make(map[string]rpt.Collection)
		b.subs = make(map[int64]*rpt.Table)
	}
	for _, s := range c {
		err := b.index(s.Tab)
		if err != nil {
			return err
		}
	}
	b.cols[name] = c
	return nil
}

// Collection returns the collection for the report name or an error.
func (b *Backend) Collection(name string) (rpt.Collection, error) {
	c, ok := b.cols[name]
	if !ok {
		return nil, arch.ErrNoStream
	}
	return c, nil
}

// Table returns the table for the report name and period key or an error.
func (b *Backend) Table(name, key string) (*rpt.Table, error) {
	c, err := b.Collection(name)
	if err != nil {
		return nil, err
	}
	s, ok := c.Get(key)
	if !ok {
		return nil, cor.Errorf("no span %s for report %s", key, name)
	}
	return s.Tab, nil
}

// Sub returns the nested table with the reference id or nil.
func (b *Backend) Sub(id int64) *rpt.Table { return b.subs[id] }

// LoadSub returns the nested table of row r or nil if r is a leaf.
// The date context is ignored, spans already separate periods.
func (b *Backend) LoadSub(r *rpt.Row, date string) (*rpt.Table, error) {
	if r.Sub.Tab != nil {
		return r.Sub.Tab, nil
	}
	if r.Sub.ID == 0 {
		return nil, nil
	}
	t := b.subs[r.Sub.ID]
	if t == nil {
		return nil, cor.Errorf("dangling sub table reference %d", r.Sub.ID)
	}
	return t, nil
}

// Update recalculates the manifest versions from the current collections.
func (b *Backend) Update() error {
	vr := arch.NewVersioner(b.Manifest)
	for name, c := range b.cols {
		_, err := vr.Version(name, c)
		if err != nil {
			return err
		}
	}
	b.Manifest = vr.Manifest()
	return nil
}

// Dataset returns the backend contents as dataset for archiving. The streams
// are sorted by name and are deep copies with all nested tables materialized
// again.
func (b *Backend) Dataset() (*arch.Dataset, error) {
	d := &arch.Dataset{Manifest: b.Manifest}
	keys, err := b.Keys()
	if err != nil {
		return nil, err
	}
	for _, name := range keys {
		full, err := arch.Materialize(b, b.cols[name])
		if err != nil {
			return nil, err
		}
		d.Streams = append(d.Streams, &arch.MemStream{Report: name, Col: full})
	}
	return d, nil
}

func (b *Backend) index(t *rpt.Table) error {
	if t == nil {
		return nil
	}
	for _, r := range t.Rows {
		if r.Sub.Tab == nil {
			continue
		}
		if r.Sub.ID != 0 {
			return cor.Errorf("row %s already has sub reference %d", r.Label, r.Sub.ID)
		}
		sub := r.Sub.Tab
		err := b.index(sub)
		if err != nil {
			return err
		}
		b.last++
		r.Sub = rpt.Ref{ID: b.last}
		b.subs[b.last] = sub
	}
	return nil
}
