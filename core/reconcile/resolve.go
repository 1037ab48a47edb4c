package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"drive-cache/core/remote"
	"drive-cache/core/utils"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrPathUnresolved means an item's parent chain could not be walked to
	// the watched root within the depth bound, or it loops.
	ErrPathUnresolved = errors.New("reconcile: parent chain unresolved")

	errOutsideTree = errors.New("reconcile: item outside watched tree")
)

const folderCacheSize = 4096

type folderNode struct {
	name    string
	parents []string
}

// resolver turns an item into its path below the watched root by walking
// parents. Folder metadata is cached; folder changes invalidate entries.
type resolver struct {
	source   remote.Source
	rootID   string
	maxDepth int
	folders  *lru.Cache[string, folderNode]
}

func newResolver(source remote.Source, rootID string, maxDepth int) (*resolver, error) {
	cache, err := lru.New[string, folderNode](folderCacheSize)
	if err != nil {
		return nil, err
	}
	return &resolver{source: source, rootID: rootID, maxDepth: maxDepth, folders: cache}, nil
}

// Resolve returns the logical path of item, errOutsideTree when its chain
// ends without reaching the root, or ErrPathUnresolved.
func (r *resolver) Resolve(ctx context.Context, item remote.Item) (string, error) {
	segments := []string{utils.SanitizeName(item.Name)}
	parents := item.Parents
	visited := mapset.NewThreadUnsafeSet(item.ID)

	for hop := 0; hop < r.maxDepth; hop++ {
		if len(parents) == 0 {
			return "", errOutsideTree
		}
		if slices.Contains(parents, r.rootID) {
			slices.Reverse(segments)
			return strings.Join(segments, "/"), nil
		}

		parentID := parents[0]
		if !visited.Add(parentID) {
			return "", fmt.Errorf("%w: cycle at %s", ErrPathUnresolved, parentID)
		}

		node, err := r.folder(ctx, parentID)
		if errors.Is(err, remote.ErrNotFound) {
			return "", errOutsideTree
		}
		if err != nil {
			return "", err
		}
		segments = append(segments, utils.SanitizeName(node.name))
		parents = node.parents
	}

	return "", fmt.Errorf("%w: more than %d hops from %s", ErrPathUnresolved, r.maxDepth, item.ID)
}

func (r *resolver) folder(ctx context.Context, id string) (folderNode, error) {
	if node, ok := r.folders.Get(id); ok {
		return node, nil
	}
	item, err := r.source.GetItem(ctx, id)
	if err != nil {
		return folderNode{}, err
	}
	if item.Trashed {
		return folderNode{}, remote.ErrNotFound
	}
	node := folderNode{name: item.Name, parents: item.Parents}
	r.folders.Add(id, node)
	return node, nil
}

// remember records a folder seen during enumeration.
func (r *resolver) remember(item remote.Item) {
	r.folders.Add(item.ID, folderNode{name: item.Name, parents: item.Parents})
}

// invalidate drops a changed folder and reports whether a known folder was
// renamed, moved or trashed, which shifts the paths of everything below it.
func (r *resolver) invalidate(item remote.Item) bool {
	prev, ok := r.folders.Peek(item.ID)
	r.folders.Remove(item.ID)
	if !ok {
		return false
	}
	return item.Trashed || prev.name != item.Name || !slices.Equal(prev.parents, item.Parents)
}

// known reports whether id is a cached folder.
func (r *resolver) known(id string) bool {
	return r.folders.Contains(id)
}

// forget drops id and reports whether it was a known folder.
func (r *resolver) forget(id string) bool {
	ok := r.folders.Contains(id)
	r.folders.Remove(id)
	return ok
}
