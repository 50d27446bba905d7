// Package naming builds output filenames: converted-image names, archive
// names, display titles for group headers, and in-run collision resolution.
package naming
