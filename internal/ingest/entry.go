package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// childBatchSize bounds one directory-listing request. The listing API is
// paginated; callers keep requesting batches until an empty one is returned.
const childBatchSize = 128

// Entry is the narrow capability the scanner needs from a file-system node.
type Entry interface {
	Name() string
	IsDir() bool
	// Size reports the byte size of a file entry; zero for directories.
	Size() int64
	// Open resolves the underlying byte handle of a file entry.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Children starts a paginated listing of a directory entry.
	Children(ctx context.Context) (ChildPager, error)
}

// ChildPager yields directory children in batches. An empty batch signals
// the listing is exhausted.
type ChildPager interface {
	Next(ctx context.Context) ([]Entry, error)
	Close() error
}

// NewOSEntry adapts a local filesystem path to the Entry interface.
func NewOSEntry(path string) (Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	return &osEntry{path: abs, name: info.Name(), dir: info.IsDir(), size: info.Size()}, nil
}

type osEntry struct {
	path string
	name string
	dir  bool
	size int64
}

func (e *osEntry) Name() string { return e.name }

func (e *osEntry) IsDir() bool { return e.dir }

func (e *osEntry) Size() int64 { return e.size }

// Path returns the absolute filesystem location backing the entry.
func (e *osEntry) Path() string { return e.path }

func (e *osEntry) Open(_ context.Context) (io.ReadCloser, error) {
	if e.dir {
		return nil, fmt.Errorf("open %s: is a directory", e.path)
	}
	return os.Open(e.path)
}

func (e *osEntry) Children(_ context.Context) (ChildPager, error) {
	if !e.dir {
		return nil, fmt.Errorf("list %s: not a directory", e.path)
	}
	f, err := os.Open(e.path)
	if err != nil {
		return nil, fmt.Errorf("open directory %s: %w", e.path, err)
	}
	return &osPager{dir: e.path, f: f}, nil
}

type osPager struct {
	dir string
	f   *os.File
}

func (p *osPager) Next(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirents, err := p.f.ReadDir(childBatchSize)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", p.dir, err)
	}
	out := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		var size int64
		if !de.IsDir() {
			info, err := de.Info()
			if err != nil {
				// Unstat-able leaf: skip it, the scan continues.
				continue
			}
			size = info.Size()
		}
		out = append(out, &osEntry{
			path: filepath.Join(p.dir, de.Name()),
			name: de.Name(),
			dir:  de.IsDir(),
			size: size,
		})
	}
	return out, nil
}

func (p *osPager) Close() error {
	return p.f.Close()
}

// SourcePath reports the absolute filesystem path behind an entry when the
// entry is backed by the local filesystem adapter.
func SourcePath(e Entry) (string, bool) {
	type pather interface{ Path() string }
	if p, ok := e.(pather); ok {
		return p.Path(), true
	}
	return "", false
}

// DetectMIME returns the declared MIME type for a file name, based on its
// extension.
func DetectMIME(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "application/octet-stream"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// IsSupportedImage reports whether the file name carries an extension the
// transform pipeline can decode.
func IsSupportedImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	default:
		return false
	}
}
