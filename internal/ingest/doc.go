// Package ingest walks dropped file-system roots into a flat list of
// scanned files and partitions them into named groups by their top-level
// directory. The scanner depends only on the narrow Entry capability
// interface so tests can inject synthetic trees and failures.
package ingest
