package integrity

import (
	"context"
	"fmt"

	"drive-cache/core/storage"
	"drive-cache/feature/integrity/checks"

	"github.com/hashicorp/go-multierror"
)

// ActionType represents the type of repair action.
type ActionType string

const (
	// ActionDeleteOrphan deletes a cached file no manifest entry owns.
	ActionDeleteOrphan ActionType = "delete_orphan"
	// ActionRefetch downloads an item again from the remote.
	ActionRefetch ActionType = "refetch"
)

// Action represents a planned repair.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the cache path for deletions and the asset id for refetches.
	Key string `json:"key"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`
}

// Plan contains the report a repair was planned from and its actions.
type Plan struct {
	Report  *checks.CacheReport `json:"report"`
	Actions []Action            `json:"actions"`
	Summary PlanSummary         `json:"summary"`
}

// PlanSummary provides aggregate counts for a plan.
type PlanSummary struct {
	Checked        int `json:"checked"`
	Missing        int `json:"missing"`
	Mismatched     int `json:"mismatched"`
	Orphans        int `json:"orphans"`
	DeleteActions  int `json:"delete_actions"`
	RefetchActions int `json:"refetch_actions"`
}

// Options controls whether a plan is executed.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// Confirmed indicates the caller accepted the destructive actions.
	// If false, nothing executes regardless of DryRun.
	Confirmed bool
}

// Resyncer re-downloads items regardless of their recorded hash.
type Resyncer interface {
	Resync(ctx context.Context, ids []string) error
}

// ResyncFunc adapts a function to Resyncer.
type ResyncFunc func(ctx context.Context, ids []string) error

func (f ResyncFunc) Resync(ctx context.Context, ids []string) error { return f(ctx, ids) }

// BuildPlan turns a cache report into repair actions.
func BuildPlan(report *checks.CacheReport) *Plan {
	plan := &Plan{
		Report:  report,
		Actions: []Action{},
		Summary: PlanSummary{
			Checked:    report.Checked,
			Missing:    len(report.Missing),
			Mismatched: len(report.Mismatched),
			Orphans:    len(report.Orphans),
		},
	}

	for _, p := range report.Orphans {
		plan.Actions = append(plan.Actions, Action{Type: ActionDeleteOrphan, Key: p, Reason: "not in manifest"})
	}
	for _, f := range report.Missing {
		plan.Actions = append(plan.Actions, Action{Type: ActionRefetch, Key: f.ID, Reason: "missing from cache"})
	}
	for _, f := range report.Mismatched {
		plan.Actions = append(plan.Actions, Action{Type: ActionRefetch, Key: f.ID, Reason: "hash mismatch"})
	}

	plan.Summary.DeleteActions = len(report.Orphans)
	plan.Summary.RefetchActions = len(report.Missing) + len(report.Mismatched)
	return plan
}

// ApplyPlan executes the actions of plan. Deletions are attempted one by one
// and their failures collected; refetches go to the resyncer in one batch.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func ApplyPlan(ctx context.Context, store storage.Store, resyncer Resyncer, plan *Plan, opts Options) (executed int, err error) {
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}

	var (
		result  *multierror.Error
		refetch []string
	)
	for _, action := range plan.Actions {
		switch action.Type {
		case ActionDeleteOrphan:
			if err := store.Delete(ctx, action.Key); err != nil {
				result = multierror.Append(result, fmt.Errorf("delete %s: %w", action.Key, err))
				continue
			}
			executed++
		case ActionRefetch:
			refetch = append(refetch, action.Key)
		}
	}

	if len(refetch) > 0 {
		if resyncer == nil {
			result = multierror.Append(result, fmt.Errorf("no resyncer to refetch %d items", len(refetch)))
		} else if err := resyncer.Resync(ctx, refetch); err != nil {
			result = multierror.Append(result, fmt.Errorf("refetch: %w", err))
		} else {
			executed += len(refetch)
		}
	}

	return executed, result.ErrorOrNil()
}
