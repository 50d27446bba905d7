package ingest

import (
	"context"
	"log/slog"
	"sync"

	"imgpress/internal/logging"
)

// ScannedFile is one leaf file paired with its path relative to the drop
// root, segments joined by "/".
type ScannedFile struct {
	RelPath string
	Size    int64
	Source  Entry
}

// Scan walks the root entries depth-first and returns every leaf file in
// deterministic pre-order. Sibling directories are traversed concurrently;
// the scan completes only when all branches have resolved. A failed child
// read skips that leaf rather than aborting the scan.
func Scan(ctx context.Context, logger *slog.Logger, roots []Entry) []ScannedFile {
	log := logging.WithComponent(logger, "scanner")

	var out []ScannedFile
	for _, root := range roots {
		if root == nil {
			continue
		}
		if root.IsDir() {
			out = append(out, scanDir(ctx, log, root, root.Name()+"/")...)
			continue
		}
		out = append(out, ScannedFile{RelPath: root.Name(), Size: root.Size(), Source: root})
	}
	return out
}

func scanDir(ctx context.Context, log *slog.Logger, dir Entry, prefix string) []ScannedFile {
	pager, err := dir.Children(ctx)
	if err != nil {
		log.Warn("skipping unreadable directory",
			logging.String("path", prefix),
			logging.Error(err),
		)
		return nil
	}
	defer pager.Close()

	var children []Entry
	for {
		batch, err := pager.Next(ctx)
		if err != nil {
			log.Warn("directory listing interrupted",
				logging.String("path", prefix),
				logging.Error(err),
			)
			break
		}
		if len(batch) == 0 {
			break
		}
		children = append(children, batch...)
	}

	// Each child owns an indexed slot so concurrent subtrees reassemble in
	// listing order.
	results := make([][]ScannedFile, len(children))
	var wg sync.WaitGroup
	for i, child := range children {
		if !child.IsDir() {
			results[i] = []ScannedFile{{
				RelPath: prefix + child.Name(),
				Size:    child.Size(),
				Source:  child,
			}}
			continue
		}
		wg.Add(1)
		go func(slot int, sub Entry) {
			defer wg.Done()
			results[slot] = scanDir(ctx, log, sub, prefix+sub.Name()+"/")
		}(i, child)
	}
	wg.Wait()

	var out []ScannedFile
	for _, part := range results {
		out = append(out, part...)
	}
	return out
}
