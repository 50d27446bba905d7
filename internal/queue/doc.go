// Package queue persists batch work items in SQLite and owns their
// lifecycle state. Items are either single-image conversions or
// folder-to-archive group tasks; both move through
// pending -> processing -> completed/failed.
package queue
