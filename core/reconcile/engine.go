package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"drive-cache/core/manifest"
	"drive-cache/core/remote"
	"drive-cache/core/storage"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Notifier receives committed versions and their change sets.
type Notifier interface {
	Notify(version int64, changes []manifest.Change)
}

// TokenStore persists the change cursor.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
}

// Options wires an Engine.
type Options struct {
	Source   remote.Source
	Store    storage.Store
	Manifest *manifest.Manifest
	Notifier Notifier
	Tokens   TokenStore
	// RootID is the watched folder.
	RootID string
	// WebhookURL enables push channels when set.
	WebhookURL string
	Config     Config
	Clock      clockwork.Clock
	Logger     *zap.Logger
}

// Engine is the single writer of the cache and the manifest.
type Engine struct {
	source   remote.Source
	store    storage.Store
	manifest *manifest.Manifest
	notifier Notifier
	tokens   TokenStore
	rootID   string
	cfg      Config
	clock    clockwork.Clock
	logger   *zap.Logger

	resolver *resolver
	ignore   ignoreList
	gate     *driftGate
	push     *pushManager

	// passMu serializes passes.
	passMu sync.Mutex

	tokenMu sync.Mutex
	token   string

	kick    chan struct{}
	baseCtx context.Context
}

// New validates opts and builds an engine. Nothing runs until Start.
func New(opts Options) (*Engine, error) {
	if opts.Source == nil || opts.Store == nil || opts.Manifest == nil {
		return nil, errors.New("reconcile: source, store and manifest are required")
	}
	if opts.RootID == "" {
		return nil, errors.New("reconcile: watched folder id is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Tokens == nil {
		opts.Tokens = &memoryTokens{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ignore, err := newIgnoreList(opts.Config.IgnorePatterns())
	if err != nil {
		return nil, err
	}
	res, err := newResolver(opts.Source, opts.RootID, opts.Config.ParentDepth())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		source:   opts.Source,
		store:    opts.Store,
		manifest: opts.Manifest,
		notifier: opts.Notifier,
		tokens:   opts.Tokens,
		rootID:   opts.RootID,
		cfg:      opts.Config,
		clock:    opts.Clock,
		logger:   opts.Logger.Named("sync"),
		resolver: res,
		ignore:   ignore,
		gate:     newDriftGate(opts.Clock, opts.Config.DriftOnRead()),
		kick:     make(chan struct{}, 1),
		baseCtx:  context.Background(),
	}
	if opts.WebhookURL != "" {
		e.push = newPushManager(opts.Source, opts.WebhookURL, opts.Config, e.Token, opts.Clock, e.logger)
	}
	return e, nil
}

// Start loads the stored cursor, brings the cache up to date and registers
// the push channel. A failed initial sync is returned but leaves the engine
// usable; the next poll retries.
func (e *Engine) Start(ctx context.Context) error {
	e.baseCtx = ctx

	token, err := e.tokens.LoadToken(ctx)
	if err != nil {
		e.logger.Warn("Failed to load change token, starting from a full sync", zap.Error(err))
		token = ""
	}
	if e.manifest.Version() == 0 {
		token = ""
	}
	e.setToken(token)

	e.passMu.Lock()
	err = e.incrementalLocked(ctx)
	e.passMu.Unlock()

	if e.push != nil {
		e.push.Start(ctx)
	}
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	return nil
}

// Run drives polling, push kicks and periodic drift checks until ctx ends.
func (e *Engine) Run(ctx context.Context) {
	poll := e.clock.NewTicker(e.cfg.PollInterval())
	defer poll.Stop()

	var driftC <-chan time.Time
	if d := e.cfg.DriftInterval(); d > 0 {
		drift := e.clock.NewTicker(d)
		defer drift.Stop()
		driftC = drift.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.Chan():
			e.runIncremental(ctx, "poll")
		case <-e.kick:
			e.runIncremental(ctx, "push")
		case <-driftC:
			if err := e.DriftCheck(ctx); err != nil {
				e.logger.Error("Drift check failed", zap.Error(err))
			}
		}
	}
}

func (e *Engine) runIncremental(ctx context.Context, trigger string) {
	if err := e.IncrementalSync(ctx); err != nil {
		e.logger.Error("Incremental sync failed", zap.String("trigger", trigger), zap.Error(err))
	}
}

// Trigger queues an incremental pass without blocking. Kicks arriving
// while one is queued are merged.
func (e *Engine) Trigger() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// FullSync rebuilds the cache from a complete enumeration.
func (e *Engine) FullSync(ctx context.Context) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()
	return e.fullLocked(ctx)
}

// IncrementalSync replays the change feed, falling back to a full sync when
// there is no usable cursor.
func (e *Engine) IncrementalSync(ctx context.Context) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()
	return e.incrementalLocked(ctx)
}

// DriftCheck re-enumerates the tree and repairs differences.
func (e *Engine) DriftCheck(ctx context.Context) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()
	return e.driftLocked(ctx)
}

// TryDriftCheck runs a drift check unless another pass is in flight.
func (e *Engine) TryDriftCheck(ctx context.Context) (bool, error) {
	if !e.passMu.TryLock() {
		return false, nil
	}
	defer e.passMu.Unlock()
	return true, e.driftLocked(ctx)
}

// RequestDrift asks for a background drift check from the read path. It
// returns whether one was started.
func (e *Engine) RequestDrift() bool {
	return e.gate.request(func() {
		ran, err := e.TryDriftCheck(e.baseCtx)
		if err != nil {
			e.logger.Warn("Requested drift check failed", zap.Error(err))
			return
		}
		if !ran {
			e.logger.Debug("Requested drift check skipped, pass in flight")
		}
	})
}

// Resync re-downloads the given items regardless of their recorded hash.
// Ids of tabs are widened to their document.
func (e *Engine) Resync(ctx context.Context, ids []string) (PassResult, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	res, err := e.repair(ctx, ids)
	if err != nil {
		return res, err
	}
	e.finish(ctx, res)
	return res, nil
}

func (e *Engine) fullLocked(ctx context.Context) error {
	res, err := e.fullSync(ctx)
	if err != nil {
		return fmt.Errorf("full sync: %w", err)
	}
	e.finish(ctx, res)
	e.gate.mark()
	return nil
}

func (e *Engine) incrementalLocked(ctx context.Context) error {
	token := e.Token()
	if token == "" {
		return e.fullLocked(ctx)
	}

	res, err := e.incrementalSync(ctx, token)
	if errors.Is(err, remote.ErrTokenInvalid) {
		e.logger.Warn("Change token rejected, running full sync", zap.Error(err))
		return e.fullLocked(ctx)
	}
	if err != nil {
		return fmt.Errorf("incremental sync: %w", err)
	}

	e.finish(ctx, res)
	if res.NeedsDrift {
		return e.driftLocked(ctx)
	}
	return nil
}

func (e *Engine) driftLocked(ctx context.Context) error {
	res, err := e.driftCheck(ctx)
	if err != nil {
		return fmt.Errorf("drift check: %w", err)
	}
	e.finish(ctx, res)
	e.gate.mark()
	return nil
}

// finish commits and broadcasts a dirty pass, then stores the cursor.
func (e *Engine) finish(ctx context.Context, res PassResult) {
	version := e.manifest.Version()
	if res.Dirty {
		version = e.manifest.Commit(ctx)
		changes := res.Changes
		if res.Kind == PassFull {
			// A full rebuild tells clients to re-fetch everything.
			changes = nil
		}
		e.notifier.Notify(version, changes)
	}

	if res.NextToken != "" && res.NextToken != e.Token() {
		e.setToken(res.NextToken)
		if err := e.tokens.SaveToken(ctx, res.NextToken); err != nil {
			e.logger.Error("Failed to persist change token", zap.Error(err))
		}
	}

	fields := []zap.Field{
		zap.String("kind", string(res.Kind)),
		zap.Int64("version", version),
		zap.Int("changes", len(res.Changes)),
		zap.Int("synced", res.Synced),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Int("pruned", res.Pruned),
		zap.String("written", humanize.Bytes(uint64(res.Written))),
		zap.Duration("took", e.clock.Since(res.started)),
	}
	if res.Dirty || res.Failed > 0 || res.Kind != PassIncremental {
		e.logger.Info("Sync pass finished", fields...)
	} else {
		e.logger.Debug("Sync pass finished", fields...)
	}
}

// Token returns the current change cursor.
func (e *Engine) Token() string {
	e.tokenMu.Lock()
	defer e.tokenMu.Unlock()
	return e.token
}

func (e *Engine) setToken(token string) {
	e.tokenMu.Lock()
	e.token = token
	e.tokenMu.Unlock()
}

// VerifyChannel reports whether a push notification belongs to the active
// channel.
func (e *Engine) VerifyChannel(channelID, token string) bool {
	if e.push == nil {
		return false
	}
	return e.push.Verify(channelID, token)
}

// Close stops the push channel.
func (e *Engine) Close(ctx context.Context) error {
	if e.push != nil {
		e.push.Close(ctx)
	}
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(int64, []manifest.Change) {}

type memoryTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memoryTokens) LoadToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memoryTokens) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}
