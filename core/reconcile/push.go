package reconcile

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"drive-cache/core/remote"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const stopTimeout = 5 * time.Second

// pushManager owns the push channel: registration, renewal before expiry,
// retry after failure and teardown.
type pushManager struct {
	source  remote.Source
	address string
	ttl     time.Duration
	margin  time.Duration
	retry   time.Duration
	token   func() string
	clock   clockwork.Clock
	logger  *zap.Logger

	mu      sync.Mutex
	channel *remote.Channel
	timer   clockwork.Timer
	closed  bool
}

func newPushManager(source remote.Source, address string, cfg Config, token func() string, clock clockwork.Clock, logger *zap.Logger) *pushManager {
	return &pushManager{
		source:  source,
		address: address,
		ttl:     cfg.ChannelTTL(),
		margin:  cfg.RenewMargin(),
		retry:   cfg.RenewRetry(),
		token:   token,
		clock:   clock,
		logger:  logger,
	}
}

// Start registers the first channel. Failure leaves the engine polling.
func (p *pushManager) Start(ctx context.Context) {
	p.renew(ctx)
}

// renew registers a new channel, then stops the previous one so no
// notifications are lost in between.
func (p *pushManager) renew(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	req := remote.WatchRequest{
		ID:        "drive-cache-" + uuid.NewString(),
		Address:   p.address,
		Token:     uuid.NewString(),
		PageToken: p.token(),
		TTL:       p.ttl,
	}
	ch, err := p.source.Watch(ctx, req)
	if err != nil {
		p.logger.Warn("Push channel registration failed, polling only", zap.Duration("retry_in", p.retry), zap.Error(err))
		p.schedule(ctx, p.retry)
		return
	}

	if old := p.channel; old != nil {
		p.stop(ctx, *old)
	}
	p.channel = ch

	next := p.renewIn(ch.Expiration)
	p.logger.Info("Push channel active",
		zap.String("channel_id", ch.ID),
		zap.Time("expires", ch.Expiration),
		zap.Duration("renew_in", next))
	p.schedule(ctx, next)
}

// renewIn is the delay until renewal: margin before expiry, or half the
// remaining lifetime when the margin does not fit.
func (p *pushManager) renewIn(expiration time.Time) time.Duration {
	remaining := expiration.Sub(p.clock.Now())
	if remaining <= 0 {
		return p.retry
	}
	if d := remaining - p.margin; d > 0 {
		return d
	}
	return remaining / 2
}

func (p *pushManager) schedule(ctx context.Context, d time.Duration) {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = p.clock.AfterFunc(d, func() { p.renew(ctx) })
}

func (p *pushManager) stop(ctx context.Context, ch remote.Channel) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	if err := p.source.StopWatch(stopCtx, ch); err != nil {
		p.logger.Warn("Failed to stop push channel", zap.String("channel_id", ch.ID), zap.Error(err))
	}
}

// Verify reports whether a notification carries the active channel's id
// and token.
func (p *pushManager) Verify(channelID, token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return false
	}
	return p.channel.ID == channelID &&
		subtle.ConstantTimeCompare([]byte(p.channel.Token), []byte(token)) == 1
}

// Active returns the current channel, if any.
func (p *pushManager) Active() (remote.Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return remote.Channel{}, false
	}
	return *p.channel, true
}

// Close cancels renewal and stops the active channel.
func (p *pushManager) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}
	if p.channel != nil {
		p.stop(ctx, *p.channel)
		p.channel = nil
	}
}
