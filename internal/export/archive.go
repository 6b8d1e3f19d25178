package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// FileInfo describes an artifact after it has been packed.
type FileInfo struct {
	Name string
	Size int
	Rows int
}

// Packager streams artifacts into an in-memory zip archive. Each artifact is
// fully written before Add returns, so callers can drop its buffer.
type Packager struct {
	buf      bytes.Buffer
	zw       *zip.Writer
	modified time.Time
	files    []FileInfo
	closed   bool
}

// NewPackager starts an empty archive. modified stamps every entry.
func NewPackager(modified time.Time) *Packager {
	p := &Packager{modified: modified}
	p.zw = zip.NewWriter(&p.buf)
	return p
}

// Add writes one artifact. Empty artifacts are rejected.
func (p *Packager) Add(a Artifact) error {
	if p.closed {
		return fmt.Errorf("packager closed")
	}
	if len(a.Data) == 0 {
		return fmt.Errorf("refusing to pack empty artifact %s", a.Name)
	}
	for _, f := range p.files {
		if f.Name == a.Name {
			return fmt.Errorf("duplicate artifact %s", a.Name)
		}
	}
	w, err := p.zw.CreateHeader(&zip.FileHeader{
		Name:     a.Name,
		Method:   zip.Deflate,
		Modified: p.modified,
	})
	if err != nil {
		return fmt.Errorf("zip %s: %w", a.Name, err)
	}
	if _, err := w.Write(a.Data); err != nil {
		return fmt.Errorf("zip %s: %w", a.Name, err)
	}
	p.files = append(p.files, FileInfo{Name: a.Name, Size: len(a.Data), Rows: a.Rows})
	return nil
}

// Files lists the packed artifacts in insertion order.
func (p *Packager) Files() []FileInfo {
	return append([]FileInfo(nil), p.files...)
}

// Len is the number of packed artifacts.
func (p *Packager) Len() int { return len(p.files) }

// Close finalizes the archive and returns its bytes.
func (p *Packager) Close() ([]byte, error) {
	if p.closed {
		return p.buf.Bytes(), nil
	}
	p.closed = true
	if err := p.zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return p.buf.Bytes(), nil
}
