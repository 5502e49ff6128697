package arch

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mb0/drill/rpt"
	"github.com/mb0/xelf/bfr"
	"github.com/mb0/xelf/cor"
	"github.com/pkg/errors"
)

// ErrNoStream is returned when a dataset has no stream for a report name.
var ErrNoStream = cor.Error("no report stream")

// Dataset consists of a manifest and one stream of period spans per report.
type Dataset struct {
	Manifest
	Streams []Stream
	Closer  io.Closer
}

// Close calls the closer, if configured, and should always be called.
func (d *Dataset) Close() error {
	if d.Closer != nil {
		return d.Closer.Close()
	}
	return nil
}

// Stream returns the stream for the report name or nil.
func (d *Dataset) Stream(name string) Stream {
	for _, s := range d.Streams {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// Collection returns all period spans of the named report or an error.
func (d *Dataset) Collection(name string) (rpt.Collection, error) {
	s := d.Stream(name)
	if s == nil {
		return nil, ErrNoStream
	}
	return s.Spans()
}

// ReadDataset returns a dataset with the manifest and report streams found at
// path or an error.
//
// Path must either point to a directory or a zip file containing individual
// files for the manifest and the report streams. The manifest file must be
// named 'manifest' and report streams use the report name with a '.xelf'
// extension and an optional '.gz' suffix for gzipped files.
func ReadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("read dataset at path %q: %v", path, err)
	}
	if strings.HasSuffix(path, ".zip") {
		return zipData(f, path)
	}
	return dirData(f, path)
}

// WriteDataset writes a dataset to path or returns an error. If the path ends
// in '.zip' a zip file is written, otherwise the dataset is written as
// individual gzipped files to the directory at path.
func WriteDataset(path string, d *Dataset) error {
	if strings.HasSuffix(path, ".zip") {
		return writeFile(path, func(f io.Writer) error {
			w := zip.NewWriter(f)
			defer w.Close()
			return WriteZip(w, d)
		})
	}
	gz := gzip.NewWriter(nil)
	err := writeFileGz(filepath.Join(path, "manifest.json.gz"), gz, func(w io.Writer) error {
		return WriteManifest(d.Manifest, w)
	})
	if err != nil {
		return err
	}
	for _, s := range d.Streams {
		name := fmt.Sprintf("%s.xelf.gz", s.Name())
		err = writeFileGz(filepath.Join(path, name), gz, func(w io.Writer) error {
			return writeSpans(s, w)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadZip returns a dataset read from the given zip reader as described in
// ReadDataset or an error. It is the caller's responsibility to close a zip
// read closer or any underlying reader.
func ReadZip(r *zip.Reader) (_ *Dataset, err error) {
	var d Dataset
	for _, f := range r.File {
		s := ZipStream{NewFileStream(f.Name), f}
		if s.Report == "manifest" {
			rc, err := s.Open()
			if err != nil {
				return nil, err
			}
			d.Manifest, err = ReadManifest(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			continue
		}
		d.Streams = append(d.Streams, &s)
	}
	return &d, nil
}

// WriteZip writes a dataset to the given zip file or returns an error.
// It is the caller's responsibility to close the zip writer.
func WriteZip(z *zip.Writer, d *Dataset) error {
	w, err := z.Create("manifest.json")
	if err != nil {
		return err
	}
	err = WriteManifest(d.Manifest, w)
	if err != nil {
		return err
	}
	for _, s := range d.Streams {
		w, err = z.Create(fmt.Sprintf("%s.xelf", s.Name()))
		if err != nil {
			return err
		}
		err = writeSpans(s, w)
		if err != nil {
			return err
		}
	}
	return z.Flush()
}

func dirData(f *os.File, path string) (*Dataset, error) {
	defer f.Close()
	fis, err := f.Readdir(0)
	if err != nil {
		return nil, errors.Errorf("read dataset dir at path %q: %v", path, err)
	}
	var d Dataset
	for _, fi := range fis {
		s := NewFileStream(filepath.Join(path, fi.Name()))
		if s.Report == "manifest" {
			rc, err := s.Open()
			if err != nil {
				return nil, err
			}
			d.Manifest, err = ReadManifest(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			continue
		}
		d.Streams = append(d.Streams, &s)
	}
	return &d, nil
}

func zipData(f *os.File, path string) (*Dataset, error) {
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Errorf("stat zip dataset at path %q: %v", path, err)
	}
	r, err := zip.NewReader(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, errors.Errorf("read zip dataset at path %q: %v", path, err)
	}
	d, err := ReadZip(r)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.Closer = f
	return d, nil
}

func writeSpans(s Stream, w io.Writer) error {
	c, err := s.Spans()
	if err != nil {
		return err
	}
	b := bfr.Get()
	defer bfr.Put(b)
	err = c.WriteBfr(&bfr.Ctx{B: b})
	if err != nil {
		return err
	}
	b.WriteByte('\n')
	_, err = w.Write(b.Bytes())
	return err
}

func writeFileGz(path string, gz *gzip.Writer, wf func(io.Writer) error) error {
	return writeFile(path, func(w io.Writer) error {
		gz.Reset(w)
		err := wf(gz)
		if err != nil {
			return err
		}
		// the gzip footer is only written on close
		return gz.Close()
	})
}

func writeFile(path string, wf func(io.Writer) error) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = wf(f)
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
