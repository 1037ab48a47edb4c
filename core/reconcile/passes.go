package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"drive-cache/core/remote"
	"drive-cache/core/utils"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

type observed struct {
	item    remote.Item
	logical string
}

// enumerate walks the watched tree and returns every non-ignored leaf.
// Any listing failure aborts the walk.
func (e *Engine) enumerate(ctx context.Context) ([]observed, error) {
	var leaves []observed
	visited := mapset.NewThreadUnsafeSet(e.rootID)

	var walk func(folderID, prefix string, depth int) error
	walk = func(folderID, prefix string, depth int) error {
		children, err := e.source.ListChildren(ctx, folderID)
		if err != nil {
			return err
		}
		for _, child := range children {
			logical := prefix + utils.SanitizeName(child.Name)
			switch Classify(child.MimeType) {
			case KindContainer:
				e.resolver.remember(child)
				if depth+1 >= e.cfg.ParentDepth() {
					e.logger.Warn("Folder nested too deep, skipping", zap.String("path", logical))
					continue
				}
				if !visited.Add(child.ID) {
					continue
				}
				if err := walk(child.ID, logical+"/", depth+1); err != nil {
					return err
				}
			case KindBinary, KindDocument:
				if e.ignore.Match(logical) {
					continue
				}
				leaves = append(leaves, observed{item: child, logical: logical})
			case KindUnsupported:
			}
		}
		return nil
	}

	if err := walk(e.rootID, "", 0); err != nil {
		return nil, fmt.Errorf("enumerate watched tree: %w", err)
	}
	return leaves, nil
}

func (e *Engine) fullSync(ctx context.Context) (PassResult, error) {
	res := newResult(PassFull, e.clock.Now())

	// Anchor before listing so edits made during enumeration are replayed.
	token, err := e.source.StartToken(ctx)
	if err != nil {
		return res, fmt.Errorf("anchor change token: %w", err)
	}

	leaves, err := e.enumerate(ctx)
	if err != nil {
		return res, err
	}

	seen := e.syncLeaves(ctx, &res, leaves)
	e.pruneUnseen(ctx, &res, seen)
	e.pruneOrphans(ctx, &res)

	res.NextToken = token
	return res, nil
}

func (e *Engine) driftCheck(ctx context.Context) (PassResult, error) {
	res := newResult(PassDrift, e.clock.Now())

	leaves, err := e.enumerate(ctx)
	if err != nil {
		return res, err
	}

	seen := e.syncLeaves(ctx, &res, leaves)
	e.pruneUnseen(ctx, &res, seen)
	return res, nil
}

func (e *Engine) incrementalSync(ctx context.Context, token string) (PassResult, error) {
	res := newResult(PassIncremental, e.clock.Now())

	page, err := e.source.ListChanges(ctx, token)
	if err != nil {
		return res, err
	}
	res.NextToken = page.NextToken

	fileChanges := 0
	for _, ch := range page.Changes {
		if ch.Kind != remote.ChangeKindFile {
			res.Skipped++
			continue
		}
		fileChanges++
		e.applyChange(ctx, &res, ch)
	}
	if len(page.Changes) > 0 && fileChanges == 0 {
		res.NeedsDrift = true
	}
	return res, nil
}

func (e *Engine) applyChange(ctx context.Context, res *PassResult, ch remote.Change) {
	if ch.Removed || ch.Item == nil || ch.Item.Trashed {
		if e.resolver.forget(ch.ItemID) {
			res.NeedsDrift = true
		}
		res.record(e.removeItem(ctx, ch.ItemID)...)
		return
	}

	item := *ch.Item
	switch Classify(item.MimeType) {
	case KindContainer:
		known := e.resolver.known(item.ID)
		if e.resolver.invalidate(item) {
			res.NeedsDrift = true
			return
		}
		if known {
			return
		}
		// An unknown folder may have been moved in from outside the tree.
		// Its children get no change records of their own.
		if _, err := e.resolver.Resolve(ctx, item); err == nil {
			e.logger.Info("Folder entered the watched tree", zap.String("id", item.ID), zap.String("name", item.Name))
			e.resolver.remember(item)
			res.NeedsDrift = true
		}
		return
	case KindUnsupported:
		res.Skipped++
		return
	case KindBinary, KindDocument:
	}

	logical, err := e.resolver.Resolve(ctx, item)
	switch {
	case errors.Is(err, errOutsideTree):
		e.leaveTree(ctx, res, item.ID)
		return
	case err != nil:
		res.Skipped++
		e.logger.Warn("Skipping change with unresolved path", zap.String("id", item.ID), zap.Error(err))
		return
	}

	if e.ignore.Match(logical) {
		e.leaveTree(ctx, res, item.ID)
		return
	}
	e.applyItem(ctx, res, item, logical, false)
}

// leaveTree removes an item that is no longer part of the mirrored tree.
func (e *Engine) leaveTree(ctx context.Context, res *PassResult, id string) {
	changes := e.removeItem(ctx, id)
	if len(changes) == 0 {
		res.Skipped++
		return
	}
	e.logger.Info("Item left the watched tree", zap.String("id", id))
	res.record(changes...)
}

func (e *Engine) repair(ctx context.Context, ids []string) (PassResult, error) {
	res := newResult(PassRepair, e.clock.Now())

	targets := mapset.NewThreadUnsafeSet[string]()
	for _, id := range ids {
		targets.Add(baseID(id))
	}

	for id := range targets.Iter() {
		item, err := e.source.GetItem(ctx, id)
		if errors.Is(err, remote.ErrNotFound) {
			res.record(e.removeItem(ctx, id)...)
			continue
		}
		if err != nil {
			res.Failed++
			e.logger.Error("Failed to look up item for repair", zap.String("id", id), zap.Error(err))
			continue
		}
		if item.Trashed {
			res.record(e.removeItem(ctx, id)...)
			continue
		}

		logical, err := e.resolver.Resolve(ctx, *item)
		switch {
		case errors.Is(err, errOutsideTree):
			e.leaveTree(ctx, &res, id)
			continue
		case err != nil:
			res.Failed++
			e.logger.Error("Failed to resolve item for repair", zap.String("id", id), zap.Error(err))
			continue
		}
		e.applyItem(ctx, &res, *item, logical, true)
	}
	return res, nil
}

func (e *Engine) syncLeaves(ctx context.Context, res *PassResult, leaves []observed) mapset.Set[string] {
	seen := mapset.NewThreadUnsafeSetWithSize[string](len(leaves))
	for _, leaf := range leaves {
		seen.Add(leaf.item.ID)
		e.applyItem(ctx, res, leaf.item, leaf.logical, false)
	}
	return seen
}

// pruneUnseen removes manifest entries whose item was not enumerated.
func (e *Engine) pruneUnseen(ctx context.Context, res *PassResult, seen mapset.Set[string]) {
	known := mapset.NewThreadUnsafeSet[string]()
	for _, id := range e.manifest.IDs() {
		known.Add(baseID(id))
	}
	for id := range known.Difference(seen).Iter() {
		changes := e.removeItem(ctx, id)
		res.Pruned += len(changes)
		res.record(changes...)
	}
}

// pruneOrphans deletes cached bytes no manifest entry owns, then top-level
// document folders no entry lives in.
func (e *Engine) pruneOrphans(ctx context.Context, res *PassResult) {
	owned := mapset.NewThreadUnsafeSet[string]()
	tops := mapset.NewThreadUnsafeSet[string]()
	for _, a := range e.manifest.Staged() {
		owned.Add(a.Path)
		tops.Add(utils.TopLevel(a.Path))
	}

	paths, err := e.store.ListAll(ctx)
	if err != nil {
		e.logger.Warn("Failed to list cache for orphan pruning", zap.Error(err))
		return
	}
	for _, p := range paths {
		if owned.Contains(p) {
			continue
		}
		if err := e.store.Delete(ctx, p); err != nil {
			e.logger.Warn("Failed to delete orphaned file", zap.String("path", p), zap.Error(err))
			continue
		}
		res.Pruned++
		e.logger.Info("Deleted orphaned file", zap.String("path", p))
	}

	folders, err := e.store.ListTopLevelFolders(ctx)
	if err != nil {
		e.logger.Warn("Failed to list top-level folders", zap.Error(err))
		return
	}
	for _, f := range folders {
		if !strings.HasSuffix(f, documentSuffix) || tops.Contains(f) {
			continue
		}
		if err := e.store.DeleteFolder(ctx, f); err != nil {
			e.logger.Warn("Failed to delete orphaned document folder", zap.String("path", f), zap.Error(err))
			continue
		}
		e.logger.Info("Deleted orphaned document folder", zap.String("path", f))
	}
}
