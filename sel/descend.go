package sel

import (
	"net/url"
	"strings"

	"github.com/mb0/drill/rpt"
)

// lookup tries each variation of the whole query, splits it into a decoded
// segment path and attempts a descent. The first variation that yields a row
// wins, a query without any match returns a nil row and no error.
func (r *Resolver) lookup(tab *rpt.Table, query, date string) (*rpt.Row, error) {
	sep := r.Sep
	if sep == "" {
		sep = Sep
	}
	for _, v := range r.variations(query) {
		path := strings.Split(v, sep)
		for i, seg := range path {
			dec, err := r.decode(seg)
			if err != nil {
				return nil, err
			}
			path[i] = dec
		}
		row, err := r.descend(tab, path, date)
		if err != nil || row != nil {
			return row, err
		}
	}
	return nil, nil
}

// descend matches the first path segment against tab and recurses with the
// remaining segments into the matched row's nested table. A nil row result
// means the path does not match, partial matches do not count. Each segment
// is tried in all its variations, the lookup is always an exact label match.
func (r *Resolver) descend(tab *rpt.Table, path []string, date string) (*rpt.Row, error) {
	if len(path) == 0 {
		return nil, nil
	}
	head, rest := path[0], path[1:]
	var row *rpt.Row
	for _, v := range r.variations(head) {
		if row = tab.Find(v); row != nil {
			break
		}
	}
	if row == nil {
		return nil, nil
	}
	if len(rest) == 0 {
		return row, nil
	}
	sub, err := r.loadSub(row, date)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}
	return r.descend(sub, rest, date)
}

func (r *Resolver) loadSub(row *rpt.Row, date string) (*rpt.Table, error) {
	if r.Load == nil {
		return row.Sub.Tab, nil
	}
	return r.Load.LoadSub(row, date)
}

func (r *Resolver) decode(seg string) (string, error) {
	if r.Decode == nil {
		return url.QueryUnescape(seg)
	}
	return r.Decode(seg)
}
