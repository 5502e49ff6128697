package arch

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/mb0/drill/rpt"
	"github.com/mb0/xelf/bfr"
	"github.com/mb0/xelf/cor"
)

// Version contains essential details of a report stream to derive a new
// version number.
//
// The name is the report name, and date the recording time of the last
// version bump. Vers is a positive integer for known versions or zero if
// unknown. The hash is a lowercase hex string of a sha256 hash over the
// report name and the contents of all its period spans.
type Version struct {
	Name string    `json:"name"`
	Vers int64     `json:"vers"`
	Date time.Time `json:"date,omitempty"`
	Hash string    `json:"hash"`
}

// ReadVersion returns a version read from r or an error.
func ReadVersion(r io.Reader) (v Version, err error) {
	err = json.NewDecoder(r).Decode(&v)
	return v, err
}

// WriteTo writes the version to w and returns the written bytes or an error.
func (v Version) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	err := json.NewEncoder(&b).Encode(v)
	if err != nil {
		return 0, err
	}
	return b.WriteTo(w)
}

// Versioner sets and returns report version details, usually based on the
// last recorded manifest.
type Versioner interface {
	// Manifest returns a fresh manifest with updated versions.
	Manifest() Manifest
	// Version sets and returns the version details for the named report
	// with the given spans or an error.
	Version(name string, c rpt.Collection) (Version, error)
}

// NewVersioner returns a new versioner based on the given manifest.
func NewVersioner(mf Manifest) Versioner {
	mv := make(manifestVersioner, len(mf))
	for _, v := range mf {
		e := mv[v.Name]
		if e == nil {
			mv[v.Name] = &entry{old: v}
		} else if e.old.Vers < v.Vers {
			e.old = v
		}
	}
	return mv
}

type manifestVersioner map[string]*entry

func (mv manifestVersioner) Manifest() Manifest {
	mf := make(Manifest, 0, len(mv))
	for _, e := range mv {
		if e.cur.Vers != 0 {
			mf = append(mf, e.cur)
		} else {
			mf = append(mf, e.old)
		}
	}
	return mf.Sort()
}

func (mv manifestVersioner) Version(name string, c rpt.Collection) (res Version, err error) {
	res.Name = name
	e := mv[name]
	if e == nil {
		res.Vers = 1
	} else if e.cur.Vers != 0 { // we already did the work
		return e.cur, nil
	} else if e.old.Vers != 0 {
		res.Vers = e.old.Vers
	} else {
		return res, cor.Errorf("internal manifest error inconsistent state")
	}
	res.Hash, err = hashSpans(name, c)
	if err != nil {
		return res, err
	}
	if e == nil {
		res.Date = time.Now()
		mv[name] = &entry{cur: res}
	} else if res.Hash != e.old.Hash {
		res.Vers++
		res.Date = time.Now()
		e.cur = res
	} else {
		res = e.old
		e.cur = res
	}
	return res, nil
}

func hashSpans(name string, c rpt.Collection) (string, error) {
	h := sha256.New()
	h.Write([]byte(name))
	b := bfr.Get()
	defer bfr.Put(b)
	for _, s := range c {
		b.Reset()
		err := s.WriteBfr(&bfr.Ctx{B: b})
		if err != nil {
			return "", err
		}
		h.Write(b.Bytes())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type entry struct {
	old Version
	cur Version
}
