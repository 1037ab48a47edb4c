package reconcile

import (
	"time"

	"drive-cache/core/manifest"
)

// PassKind names a reconciliation strategy.
type PassKind string

const (
	PassFull        PassKind = "full"
	PassIncremental PassKind = "incremental"
	PassDrift       PassKind = "drift"
	PassRepair      PassKind = "repair"
)

// PassResult is what a pass did. Dirty is true iff Changes is non-empty.
type PassResult struct {
	Kind       PassKind
	Dirty      bool
	Changes    []manifest.Change
	NeedsDrift bool
	// NextToken is the change cursor to store once the pass is committed.
	NextToken string

	Synced  int
	Skipped int
	Failed  int
	Pruned  int
	Written int64

	started time.Time
}

func newResult(kind PassKind, now time.Time) PassResult {
	return PassResult{Kind: kind, started: now}
}

func (r *PassResult) record(changes ...manifest.Change) {
	if len(changes) == 0 {
		return
	}
	r.Dirty = true
	r.Changes = append(r.Changes, changes...)
}
