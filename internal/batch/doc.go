// Package batch drives queue processing: it claims pending work items one
// at a time, dispatches them to the image transform or the group archiver,
// and persists every state change before moving on.
//
// A run is strictly sequential. One item failing marks that item failed and
// the run continues with the next; the run itself only errors when it cannot
// start (lock held, preflight failure) or the context is cancelled.
package batch
