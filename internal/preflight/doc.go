// Package preflight provides readiness checks for the filesystem paths a
// run depends on.
//
// The batch orchestrator calls RunAll before touching the queue: if the
// output directory is unwritable or the disk is nearly full, the run halts
// up front instead of failing partway through a batch.
package preflight
