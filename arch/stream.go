package arch

import (
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/mb0/drill/rpt"
)

// Stream represents the period spans of one report in a dataset.
//
// The abstraction lets us defer reading file backed data until it is needed,
// without forcing callers to care where the data comes from.
type Stream interface {
	Name() string // report name
	Spans() (rpt.Collection, error)
}

// MemStream is an in-memory stream implementation.
type MemStream struct {
	Report string
	Col    rpt.Collection
}

func (s *MemStream) Name() string                   { return s.Report }
func (s *MemStream) Spans() (rpt.Collection, error) { return s.Col, nil }

// FileStream is a file based stream implementation.
type FileStream struct {
	Report string
	Format string
	Gzip   bool
	Path   string
}

// NewFileStream parses the stream details from the base name of path.
// Stream files are named report.format with an optional .gz suffix for
// gzipped files.
func NewFileStream(path string) FileStream {
	name := path
	idx := strings.LastIndexByte(name, '/')
	if idx >= 0 {
		name = name[idx+1:]
	}
	var ext string
	gz := strings.HasSuffix(name, ".gz")
	if gz {
		name = name[:len(name)-3]
	}
	idx = strings.LastIndexByte(name, '.')
	if idx > 0 {
		name, ext = name[:idx], name[idx+1:]
	}
	return FileStream{name, ext, gz, path}
}

func (s *FileStream) Name() string { return s.Report }
func (s *FileStream) Spans() (rpt.Collection, error) {
	r, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return rpt.ReadCollection(r)
}

// Open returns an uncompressed reader for the stream contents.
func (s *FileStream) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	return openStream(f, s.Gzip)
}

// ZipStream is a zip file based stream implementation.
type ZipStream struct {
	FileStream
	*zip.File
}

func (s *ZipStream) Spans() (rpt.Collection, error) {
	r, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return rpt.ReadCollection(r)
}

func (s *ZipStream) Open() (io.ReadCloser, error) {
	f, err := s.File.Open()
	if err != nil {
		return nil, err
	}
	return openStream(f, s.Gzip)
}

type streamReader struct {
	io.Reader
	f  io.Closer
	gz *gzip.Reader
}

func openStream(f io.ReadCloser, gzipped bool) (io.ReadCloser, error) {
	if !gzipped {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &streamReader{gz, f, gz}, nil
}

func (r *streamReader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.f.Close()
}
