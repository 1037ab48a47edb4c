package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"drive-cache/core/manifest"
	"drive-cache/core/remote"
	"drive-cache/core/storage"
	"drive-cache/core/utils"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const rootID = "root"

// fakeSource is an in-memory remote tree with an append-only change log.
// A token "tN" points at entry N of the log.
type fakeSource struct {
	mu       sync.Mutex
	items    map[string]remote.Item
	content  map[string][]byte
	parts    map[string][]remote.Part
	log      []remote.Change
	invalid  map[string]bool
	failing  map[string]bool
	listErr  error
	fetches  int
	watchErr error
	watches  []remote.WatchRequest
	stopped  []remote.Channel
	clock    clockwork.Clock
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		items:   map[string]remote.Item{rootID: {ID: rootID, Name: "root", MimeType: remote.MimeFolder}},
		content: map[string][]byte{},
		parts:   map[string][]remote.Part{},
		invalid: map[string]bool{},
		failing: map[string]bool{},
		clock:   clockwork.NewRealClock(),
	}
}

func (f *fakeSource) emit(id string) {
	item, ok := f.items[id]
	if !ok {
		f.log = append(f.log, remote.Change{ItemID: id, Kind: remote.ChangeKindFile, Removed: true})
		return
	}
	cp := item
	f.log = append(f.log, remote.Change{ItemID: id, Kind: remote.ChangeKindFile, Item: &cp})
}

func (f *fakeSource) folder(id, name, parent string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id] = remote.Item{ID: id, Name: name, MimeType: remote.MimeFolder, Parents: []string{parent}}
	f.emit(id)
}

func (f *fakeSource) file(id, name, mimeType, parent, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putFile(id, name, mimeType, parent, body)
	f.emit(id)
}

// silentFile changes a file without a change record, like a dropped
// notification.
func (f *fakeSource) silentFile(id, name, mimeType, parent, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putFile(id, name, mimeType, parent, body)
}

func (f *fakeSource) putFile(id, name, mimeType, parent, body string) {
	f.items[id] = remote.Item{
		ID:           id,
		Name:         name,
		MimeType:     mimeType,
		MD5:          utils.ContentHash([]byte(body)),
		Size:         int64(len(body)),
		Parents:      []string{parent},
		ModifiedTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.content[id] = []byte(body)
}

func (f *fakeSource) sheet(id, name, parent string, tabs map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id] = remote.Item{ID: id, Name: name, MimeType: remote.MimeSpreadsheet, Parents: []string{parent}}
	names := make([]string, 0, len(tabs))
	for n := range tabs {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]remote.Part, 0, len(tabs))
	for _, n := range names {
		parts = append(parts, remote.Part{Name: n, Data: []byte(tabs[n])})
	}
	f.parts[id] = parts
	f.emit(id)
}

func (f *fakeSource) rename(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.items[id]
	item.Name = name
	f.items[id] = item
	f.emit(id)
}

func (f *fakeSource) move(id, parent string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.items[id]
	item.Parents = []string{parent}
	f.items[id] = item
	f.emit(id)
}

func (f *fakeSource) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	delete(f.content, id)
	delete(f.parts, id)
	f.emit(id)
}

func (f *fakeSource) driveChange() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, remote.Change{Kind: remote.ChangeKindDrive})
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSource) ListChildren(_ context.Context, folderID string) ([]remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var children []remote.Item
	for _, item := range f.items {
		if slices.Contains(item.Parents, folderID) && !item.Trashed {
			children = append(children, item)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children, nil
}

func (f *fakeSource) GetItem(_ context.Context, id string) (*remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", remote.ErrNotFound, id)
	}
	return &item, nil
}

func (f *fakeSource) FetchContent(_ context.Context, item remote.Item) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failing[item.ID] {
		return nil, errors.New("download failed")
	}
	data, ok := f.content[item.ID]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return data, nil
}

func (f *fakeSource) FetchParts(_ context.Context, item remote.Item) ([]remote.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failing[item.ID] {
		return nil, errors.New("sheets unavailable")
	}
	return slices.Clone(f.parts[item.ID]), nil
}

func (f *fakeSource) StartToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return "t" + strconv.Itoa(len(f.log)), nil
}

func (f *fakeSource) ListChanges(_ context.Context, token string) (remote.ChangePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invalid[token] {
		return remote.ChangePage{}, remote.ErrTokenInvalid
	}
	n, err := strconv.Atoi(strings.TrimPrefix(token, "t"))
	if err != nil || n > len(f.log) {
		return remote.ChangePage{}, remote.ErrTokenInvalid
	}
	return remote.ChangePage{
		Changes:   slices.Clone(f.log[n:]),
		NextToken: "t" + strconv.Itoa(len(f.log)),
	}, nil
}

func (f *fakeSource) Watch(_ context.Context, req remote.WatchRequest) (*remote.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watches = append(f.watches, req)
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	return &remote.Channel{
		ID:         req.ID,
		ResourceID: "res-" + req.ID,
		Token:      req.Token,
		Expiration: f.clock.Now().Add(2 * time.Hour),
	}, nil
}

func (f *fakeSource) StopWatch(_ context.Context, ch remote.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, ch)
	return nil
}

func (f *fakeSource) watchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watches)
}

func (f *fakeSource) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stopped)
}

// countingStore counts writes on top of an in-memory disk store.
type countingStore struct {
	storage.Store
	mu     sync.Mutex
	writes int
}

func (c *countingStore) Write(ctx context.Context, p string, data []byte) (storage.WriteResult, error) {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Store.Write(ctx, p, data)
}

func (c *countingStore) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type notification struct {
	version int64
	changes []manifest.Change
}

type recorder struct {
	mu    sync.Mutex
	calls []notification
}

func (r *recorder) Notify(version int64, changes []manifest.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notification{version: version, changes: changes})
}

func (r *recorder) last() notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return notification{}
	}
	return r.calls[len(r.calls)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type harness struct {
	src      *fakeSource
	store    *countingStore
	manifest *manifest.Manifest
	notes    *recorder
	engine   *Engine
}

func newHarness(t *testing.T, notifier Notifier, cfg Config) *harness {
	t.Helper()
	src := newFakeSource()
	store := &countingStore{Store: storage.NewDiskStore(afero.NewMemMapFs())}
	m := manifest.New(zap.NewNop(), nil)
	notes := &recorder{}
	if notifier == nil {
		notifier = notes
	}
	engine, err := New(Options{
		Source:   src,
		Store:    store,
		Manifest: m,
		Notifier: notifier,
		RootID:   rootID,
		Config:   cfg,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &harness{src: src, store: store, manifest: m, notes: notes, engine: engine}
}

func (h *harness) read(t *testing.T, p string) (string, bool) {
	t.Helper()
	data, err := h.store.Read(context.Background(), p)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false
	}
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(data), true
}
