package ingest

import "strings"

// Groups is the result of partitioning a scan: named groups keyed by the
// first path segment, plus the loose files that carried no directory prefix.
type Groups struct {
	// Order lists group names by first appearance in scan order.
	Order   []string
	Members map[string][]ScannedFile
	// Ungrouped holds single-segment files; they belong to no named group
	// and are reported separately.
	Ungrouped []ScannedFile
}

// Partition splits a flat scan into named groups. Files keep their
// scan-discovery order within each group, and every file lands in exactly
// one bucket.
func Partition(files []ScannedFile) Groups {
	groups := Groups{Members: make(map[string][]ScannedFile)}
	for _, file := range files {
		head, rest, found := strings.Cut(file.RelPath, "/")
		if !found || rest == "" {
			groups.Ungrouped = append(groups.Ungrouped, file)
			continue
		}
		if _, seen := groups.Members[head]; !seen {
			groups.Order = append(groups.Order, head)
		}
		groups.Members[head] = append(groups.Members[head], file)
	}
	return groups
}

// MemberPath returns the entry path a grouped file should carry inside its
// group archive: the relative path with the leading group segment stripped.
func MemberPath(file ScannedFile) string {
	_, rest, found := strings.Cut(file.RelPath, "/")
	if !found {
		return file.RelPath
	}
	return rest
}
