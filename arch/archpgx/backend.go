package archpgx

import (
	"strings"

	"github.com/jackc/pgx"
	"github.com/mb0/drill/arch"
	"github.com/mb0/drill/rpt"
	"github.com/mb0/drill/sel"
	"github.com/mb0/xelf/cor"
	"github.com/mb0/xelf/lit"
)

// Backend reads and writes report trees in a postgresql database.
//
// Every report row is a node with a unique id, nested tables hang off their
// parent node. Period spans and report versions have their own tables.
type Backend struct {
	DB *pgx.ConnPool
}

func New(db *pgx.ConnPool) *Backend { return &Backend{DB: db} }

var _ sel.Loader = (*Backend)(nil)

// Keys returns all report names with at least one span.
func (b *Backend) Keys() ([]string, error) {
	rows, err := b.DB.Query("SELECT DISTINCT report FROM drill.span ORDER BY report")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return nil, err
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

// Collection returns all period spans of the named report or an error.
func (b *Backend) Collection(name string) (rpt.Collection, error) {
	rows, err := b.DB.Query("SELECT pkey, start, label FROM drill.span "+
		"WHERE report = $1 ORDER BY pos", name)
	if err != nil {
		return nil, err
	}
	var c rpt.Collection
	for rows.Next() {
		var p rpt.Period
		err = rows.Scan(&p.Key, &p.Start, &p.Label)
		if err != nil {
			rows.Close()
			return nil, err
		}
		c = append(c, rpt.Span{Per: p})
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, arch.ErrNoStream
	}
	for i := range c {
		c[i].Tab, err = b.Table(name, c[i].Per.Key)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Table returns the top level table of the report and period key or an error.
func (b *Backend) Table(name, key string) (*rpt.Table, error) {
	rows, err := b.DB.Query("SELECT id, label, cols, meta, sub FROM drill.node "+
		"WHERE report = $1 AND pkey = $2 AND parent = 0 ORDER BY pos", name, key)
	if err != nil {
		return nil, err
	}
	t, err := scanTable(rows, name)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		var n int
		err = b.DB.QueryRow("SELECT count(*) FROM drill.span "+
			"WHERE report = $1 AND pkey = $2", name, key).Scan(&n)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, cor.Errorf("no span %s for report %s", key, name)
		}
	}
	return t, nil
}

// LoadSub returns the nested table of row r or nil if r is a leaf. The date
// context is not needed, node ids already separate periods.
func (b *Backend) LoadSub(r *rpt.Row, date string) (*rpt.Table, error) {
	if r.Sub.Tab != nil {
		return r.Sub.Tab, nil
	}
	if r.Sub.ID == 0 {
		return nil, nil
	}
	rows, err := b.DB.Query("SELECT id, label, cols, meta, sub FROM drill.node "+
		"WHERE parent = $1 ORDER BY pos", r.Sub.ID)
	if err != nil {
		return nil, err
	}
	t, err := scanTable(rows, "")
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, nil
	}
	return t, nil
}

// Versions returns the recorded report versions as manifest.
func (b *Backend) Versions() (arch.Manifest, error) {
	rows, err := b.DB.Query("SELECT name, vers, date, hash FROM drill.vers")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var mf arch.Manifest
	for rows.Next() {
		var v arch.Version
		err = rows.Scan(&v.Name, &v.Vers, &v.Date, &v.Hash)
		if err != nil {
			return nil, err
		}
		mf = append(mf, v)
	}
	return mf.Sort(), rows.Err()
}

// Save replaces all spans and nodes of the named report and records a new
// version. The collection must be fully materialized, sub references by id
// cannot be written back.
func (b *Backend) Save(name string, c rpt.Collection) error {
	mf, err := b.Versions()
	if err != nil {
		return err
	}
	vr := arch.NewVersioner(mf)
	v, err := vr.Version(name, c)
	if err != nil {
		return err
	}
	return WithTx(b.DB, func(tx C) error {
		_, err := tx.Exec("DELETE FROM drill.node WHERE report = $1", name)
		if err != nil {
			return err
		}
		_, err = tx.Exec("DELETE FROM drill.span WHERE report = $1", name)
		if err != nil {
			return err
		}
		var last int64
		err = tx.QueryRow("SELECT coalesce(max(id), 0) FROM drill.node").Scan(&last)
		if err != nil {
			return err
		}
		for i, s := range c {
			_, err = tx.Exec("INSERT INTO drill.span (report, pkey, start, label, pos) "+
				"VALUES ($1, $2, $3, $4, $5)",
				name, s.Per.Key, s.Per.Start, s.Per.Label, i)
			if err != nil {
				return err
			}
		}
		src, err := newNodeSrc(name, c, last)
		if err != nil {
			return err
		}
		_, err = tx.CopyFrom(pgx.Identifier{"drill", "node"}, nodeCols, src)
		if err != nil {
			return err
		}
		_, err = tx.Exec("INSERT INTO drill.vers (name, vers, date, hash) "+
			"VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO UPDATE SET "+
			"vers = $2, date = $3, hash = $4", v.Name, v.Vers, v.Date, v.Hash)
		return err
	})
}

func scanTable(rows *pgx.Rows, name string) (*rpt.Table, error) {
	defer rows.Close()
	t := &rpt.Table{Name: name}
	for rows.Next() {
		var id int64
		var label, cols, meta string
		var sub bool
		err := rows.Scan(&id, &label, &cols, &meta, &sub)
		if err != nil {
			return nil, err
		}
		r := &rpt.Row{Label: label}
		r.Cols, err = parseDict(cols)
		if err != nil {
			return nil, err
		}
		r.Meta, err = parseDict(meta)
		if err != nil {
			return nil, err
		}
		if sub {
			r.Sub = rpt.Ref{ID: id}
		}
		t.Add(r)
	}
	return t, rows.Err()
}

func parseDict(raw string) (*lit.Dict, error) {
	if raw == "" {
		return nil, nil
	}
	l, err := lit.Read(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	d, ok := l.(*lit.Dict)
	if !ok {
		return nil, cor.Errorf("expect dict got %T", l)
	}
	return d, nil
}

var nodeCols = []string{"id", "report", "pkey", "parent", "pos", "label", "cols", "meta", "sub"}

type node struct {
	id, parent int64
	pos        int
	pkey       string
	r          *rpt.Row
}

type nodeSrc struct {
	report string
	nodes  []node
	nxt    int
}

func newNodeSrc(report string, c rpt.Collection, last int64) (*nodeSrc, error) {
	s := &nodeSrc{report: report}
	for _, sp := range c {
		err := s.walk(sp.Per.Key, sp.Tab, 0, &last)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *nodeSrc) walk(pkey string, t *rpt.Table, parent int64, last *int64) error {
	if t == nil {
		return nil
	}
	for i, r := range t.Rows {
		if r.Sub.ID != 0 && r.Sub.Tab == nil {
			return cor.Errorf("row %s has unresolved sub reference %d", r.Label, r.Sub.ID)
		}
		*last++
		id := *last
		s.nodes = append(s.nodes, node{id, parent, i, pkey, r})
		err := s.walk(pkey, r.Sub.Tab, id, last)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *nodeSrc) Next() bool { s.nxt++; return s.nxt <= len(s.nodes) }
func (s *nodeSrc) Err() error { return nil }
func (s *nodeSrc) Values() ([]interface{}, error) {
	n := s.nodes[s.nxt-1]
	var cols, meta string
	if n.r.Cols != nil && len(n.r.Cols.List) > 0 {
		cols = n.r.Cols.String()
	}
	if n.r.Meta != nil && len(n.r.Meta.List) > 0 {
		meta = n.r.Meta.String()
	}
	return []interface{}{
		n.id, s.report, n.pkey, n.parent, n.pos,
		n.r.Label, cols, meta, n.r.Sub.Tab != nil,
	}, nil
}
