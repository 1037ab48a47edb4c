package reconcile

import (
	"context"
	"fmt"
	"path"
	"strings"

	"drive-cache/core/manifest"
	"drive-cache/core/remote"
	"drive-cache/core/utils"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

// applyItem syncs one leaf item and records the outcome on res. Failures
// are logged and counted; they never abort the pass.
func (e *Engine) applyItem(ctx context.Context, res *PassResult, item remote.Item, logical string, force bool) {
	change, changed, err := e.syncItem(ctx, res, item, logical, force)
	if err != nil {
		res.Failed++
		e.logger.Error("Failed to sync item",
			zap.String("id", item.ID),
			zap.String("path", logical),
			zap.Error(err))
		return
	}
	res.Synced++
	if changed {
		res.record(change)
	}
}

func (e *Engine) syncItem(ctx context.Context, res *PassResult, item remote.Item, logical string, force bool) (manifest.Change, bool, error) {
	switch kind := Classify(item.MimeType); kind {
	case KindBinary:
		return e.syncBinary(ctx, res, item, logical, force)
	case KindDocument:
		return e.syncDocument(ctx, res, item, logical, force)
	case KindContainer, KindUnsupported:
		e.logger.Debug("Skipping item", zap.String("id", item.ID), zap.String("kind", kind.String()))
		return manifest.Change{}, false, nil
	default:
		return manifest.Change{}, false, fmt.Errorf("unhandled item kind %d", kind)
	}
}

func (e *Engine) syncBinary(ctx context.Context, res *PassResult, item remote.Item, logical string, force bool) (manifest.Change, bool, error) {
	target := binaryPath(logical, item.MimeType)
	prev, known := e.manifest.Get(item.ID)

	if known && !force && item.MD5 != "" && prev.Hash == item.MD5 && prev.Path == target {
		return manifest.Change{}, false, nil
	}

	data, err := e.source.FetchContent(ctx, item)
	if err != nil {
		return manifest.Change{}, false, err
	}
	hash := utils.ContentHash(data)
	if known && !force && prev.Hash == hash && prev.Path == target {
		return manifest.Change{}, false, nil
	}

	written, err := e.store.Write(ctx, target, data)
	if err != nil {
		return manifest.Change{}, false, fmt.Errorf("write %s: %w", target, err)
	}
	res.Written += written.Size

	if known && prev.Path != target {
		e.logger.Info("Item renamed", zap.String("id", item.ID), zap.String("from", prev.Path), zap.String("to", target))
		e.deleteFile(ctx, item.ID, prev.Path)
	}

	changed := e.manifest.Upsert(manifest.Asset{
		ID:           item.ID,
		Path:         target,
		Kind:         manifest.KindBinary,
		Hash:         written.Hash,
		Size:         written.Size,
		ModifiedTime: item.ModifiedTime,
	})
	return manifest.Change{ID: item.ID, Name: target, Action: actionFor(known)}, changed, nil
}

// syncDocument fans a spreadsheet out into one asset per tab. All tab files
// are written before the manifest is touched so a failed write leaves the
// staged entries as they were.
func (e *Engine) syncDocument(ctx context.Context, res *PassResult, item remote.Item, logical string, force bool) (manifest.Change, bool, error) {
	folder := documentFolder(logical)

	parts, err := e.source.FetchParts(ctx, item)
	if err != nil {
		return manifest.Change{}, false, err
	}

	existing := e.manifest.PartsOf(item.ID)
	oldFolder := ""
	for _, a := range existing {
		oldFolder = path.Dir(a.Path)
		break
	}
	renamed := oldFolder != "" && oldFolder != folder

	seen := mapset.NewThreadUnsafeSet[string]()
	var pending []manifest.Asset
	for _, part := range parts {
		key := partKey(item.ID, part.Name)
		if !seen.Add(key) {
			continue
		}
		target := partPath(folder, part.Name)
		prev, ok := existing[key]
		if ok && !force && !renamed && prev.Path == target && prev.Hash == utils.ContentHash(part.Data) {
			continue
		}

		written, err := e.store.Write(ctx, target, part.Data)
		if err != nil {
			return manifest.Change{}, false, fmt.Errorf("write %s: %w", target, err)
		}
		res.Written += written.Size
		pending = append(pending, manifest.Asset{
			ID:           key,
			Path:         target,
			Kind:         manifest.KindSheet,
			Hash:         written.Hash,
			Size:         written.Size,
			ModifiedTime: item.ModifiedTime,
		})
	}

	if renamed {
		e.logger.Info("Document renamed", zap.String("id", item.ID), zap.String("from", oldFolder), zap.String("to", folder))
		e.deleteDocument(ctx, item.ID, oldFolder, existing)
	}

	changed := false
	for _, a := range pending {
		if e.manifest.Upsert(a) {
			changed = true
		}
	}
	for key, a := range existing {
		if seen.Contains(key) {
			continue
		}
		e.manifest.Remove(key)
		changed = true
		if !renamed {
			e.deleteFile(ctx, item.ID, a.Path)
		}
	}

	return manifest.Change{ID: item.ID, Name: folder, Action: actionFor(len(existing) > 0)}, changed, nil
}

// removeItem drops an item and all its parts from the manifest and the cache.
func (e *Engine) removeItem(ctx context.Context, id string) []manifest.Change {
	var changes []manifest.Change

	if a, ok := e.manifest.Remove(id); ok {
		e.deleteFile(ctx, id, a.Path)
		changes = append(changes, manifest.Change{ID: id, Name: a.Path, Action: manifest.ActionRemoved})
	}

	if parts := e.manifest.RemoveByPrefix(id); len(parts) > 0 {
		folder := path.Dir(parts[0].Path)
		old := make(map[string]manifest.Asset, len(parts))
		for _, a := range parts {
			old[a.ID] = a
		}
		e.deleteDocument(ctx, id, folder, old)
		changes = append(changes, manifest.Change{ID: id, Name: folder, Action: manifest.ActionRemoved})
	}

	return changes
}

// claimed reports whether a staged asset of another item uses p, or lives
// below p when p is a folder. Two items can map to one path when siblings
// share a name or swap names within a single change page.
func (e *Engine) claimed(id, p string, folder bool) bool {
	for key, a := range e.manifest.Staged() {
		if baseID(key) == id {
			continue
		}
		if a.Path == p || (folder && strings.HasPrefix(a.Path, p+"/")) {
			return true
		}
	}
	return false
}

// deleteFile removes the bytes at p unless another item owns them.
func (e *Engine) deleteFile(ctx context.Context, id, p string) {
	if e.claimed(id, p, false) {
		e.logger.Debug("Keeping file owned by another item", zap.String("id", id), zap.String("path", p))
		return
	}
	if err := e.store.Delete(ctx, p); err != nil {
		e.logger.Warn("Failed to delete cached file", zap.String("path", p), zap.Error(err))
	}
}

// deleteDocument removes a document folder. When another item has files
// below it only the document's own tab files are removed.
func (e *Engine) deleteDocument(ctx context.Context, id, folder string, parts map[string]manifest.Asset) {
	if e.claimed(id, folder, true) {
		for _, a := range parts {
			e.deleteFile(ctx, id, a.Path)
		}
		return
	}
	if err := e.store.DeleteFolder(ctx, folder); err != nil {
		e.logger.Warn("Failed to delete document folder", zap.String("path", folder), zap.Error(err))
	}
}

func actionFor(known bool) manifest.Action {
	if known {
		return manifest.ActionUpdated
	}
	return manifest.ActionAdded
}
