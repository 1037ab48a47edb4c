package broadcast

import (
	"strconv"
	"sync"
	"time"

	"drive-cache/core/manifest"
	"drive-cache/core/utils"

	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscriber frame buffer.
const DefaultBuffer = 16

// Subscriber is one live stream.
type Subscriber struct {
	id     uint64
	scope  string
	frames chan Frame
}

// Frames delivers update frames until the subscriber is removed.
func (s *Subscriber) Frames() <-chan Frame {
	return s.frames
}

// Scope returns the path scope the subscriber is restricted to.
func (s *Subscriber) Scope() string {
	return s.scope
}

// Broadcaster holds the live subscribers.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID uint64
	buffer int
	closed bool
	logger *zap.Logger
	now    func() time.Time
}

// New creates a broadcaster. buffer <= 0 selects DefaultBuffer.
func New(logger *zap.Logger, buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subs:   make(map[uint64]*Subscriber),
		buffer: buffer,
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers a subscriber for scope. After Close it returns a
// subscriber whose channel is already closed.
func (b *Broadcaster) Subscribe(scope string) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscriber{id: b.nextID, scope: scope, frames: make(chan Frame, b.buffer)}
	if b.closed {
		close(sub.frames)
		return sub
	}
	b.subs[sub.id] = sub
	b.logger.Debug("Subscriber connected", zap.Uint64("subscriber", sub.id), zap.String("scope", scope), zap.Int("clients", len(b.subs)))
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it twice is safe.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	close(sub.frames)
	b.logger.Debug("Subscriber disconnected", zap.Uint64("subscriber", sub.id), zap.Int("clients", len(b.subs)))
}

// Notify sends an update for version to every subscriber that can see at
// least one of the changes. An empty change set means "re-fetch everything"
// and goes to all subscribers.
func (b *Broadcaster) Notify(version int64, changes []manifest.Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ts := b.now().UTC()
	for _, sub := range b.subs {
		visible := filter(changes, sub.scope)
		if len(changes) > 0 && len(visible) == 0 {
			continue
		}

		frame := Frame{
			ID:    strconv.FormatInt(version, 10),
			Event: EventUpdate,
			Data:  UpdatePayload{Version: version, Changed: visible, Timestamp: ts},
		}
		select {
		case sub.frames <- frame:
		default:
			b.logger.Warn("Subscriber buffer full, dropping update",
				zap.Uint64("subscriber", sub.id),
				zap.Int64("version", version))
		}
	}
}

func filter(changes []manifest.Change, scope string) []manifest.Change {
	visible := make([]manifest.Change, 0, len(changes))
	for _, c := range changes {
		rel, ok := utils.StripScope(c.Name, scope)
		if !ok {
			continue
		}
		c.Name = rel
		visible = append(visible, c)
	}
	return visible
}

// Count returns the number of live subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close disconnects every subscriber.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		close(sub.frames)
		delete(b.subs, id)
	}
	b.closed = true
}
