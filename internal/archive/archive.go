package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
)

// ErrArchive marks failures reading entry data or compressing the container.
var ErrArchive = errors.New("archive error")

// compressionLevel is fixed; the container format does not expose it to
// callers.
const compressionLevel = flate.DefaultCompression

// ProgressFunc receives a monotonically non-decreasing completion
// percentage. It is guaranteed to be called with 100 on success; any number
// of intermediate calls, including zero, is valid.
type ProgressFunc func(percent float64)

type entry struct {
	name string
	data []byte
	// srcPath is set instead of data when the payload streams from disk.
	srcPath string
	size    int64
}

// Builder accumulates named entries and serializes them into one zip
// payload. Duplicate paths are not deduplicated; callers pre-sanitize names.
type Builder struct {
	entries []entry
}

// NewBuilder returns an empty archive builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends one named in-memory entry.
func (b *Builder) Add(name string, data []byte) {
	b.entries = append(b.entries, entry{name: name, data: data, size: int64(len(data))})
}

// AddFile appends one named entry whose payload streams from a local file
// at finalize time. The declared size is used for progress accounting.
func (b *Builder) AddFile(name, srcPath string, size int64) {
	b.entries = append(b.entries, entry{name: name, srcPath: srcPath, size: size})
}

// Len reports the number of entries added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Finalize serializes all entries and returns the complete archive payload.
// On failure the partial archive is discarded, never surfaced.
func (b *Builder) Finalize(ctx context.Context, progress ProgressFunc) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	var totalBytes int64
	for _, e := range b.entries {
		totalBytes += e.size
	}

	var writtenBytes int64
	lastPercent := 0.0
	report := func(percent float64) {
		if progress == nil {
			return
		}
		if percent < lastPercent {
			percent = lastPercent
		}
		lastPercent = percent
		progress(percent)
	}

	for _, e := range b.entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArchive, err)
		}

		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("%w: create entry %s: %v", ErrArchive, e.name, err)
		}
		if err := writeEntry(w, e); err != nil {
			return nil, err
		}

		writtenBytes += e.size
		if totalBytes > 0 && writtenBytes < totalBytes {
			report(float64(writtenBytes) / float64(totalBytes) * 100)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: close container: %v", ErrArchive, err)
	}

	report(100)
	return buf.Bytes(), nil
}

func writeEntry(w io.Writer, e entry) error {
	if e.srcPath == "" {
		if _, err := w.Write(e.data); err != nil {
			return fmt.Errorf("%w: write entry %s: %v", ErrArchive, e.name, err)
		}
		return nil
	}

	f, err := os.Open(e.srcPath)
	if err != nil {
		return fmt.Errorf("%w: read entry %s: %v", ErrArchive, e.name, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: write entry %s: %v", ErrArchive, e.name, err)
	}
	return nil
}
