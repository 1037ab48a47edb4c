package events

import (
	"bufio"
	"time"

	"drive-cache/core/broadcast"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Counter reports the manifest version and how many assets a scope sees.
type Counter interface {
	Version() int64
	CountScoped(scope string) int
}

// Service streams broadcaster frames to SSE clients.
type Service struct {
	broadcaster *broadcast.Broadcaster
	manifest    Counter
	keepalive   time.Duration
	clock       clockwork.Clock
	logger      *zap.Logger
}

// NewService creates a new events service.
func NewService(b *broadcast.Broadcaster, m Counter, keepalive time.Duration, clock clockwork.Clock, logger *zap.Logger) *Service {
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{broadcaster: b, manifest: m, keepalive: keepalive, clock: clock, logger: logger}
}

// connected is the first frame of a stream.
func (s *Service) connected(scope string) broadcast.Frame {
	return broadcast.Frame{
		Event: broadcast.EventConnected,
		Data: broadcast.ConnectedPayload{
			Version:    s.manifest.Version(),
			AssetCount: s.manifest.CountScoped(scope),
		},
	}
}

// stream writes frames for sub until the broadcaster closes it or a write
// fails. The connection gives no close notification, so a gone client is
// detected by the next failed write: an update or the keepalive.
func (s *Service) stream(w *bufio.Writer, sub *broadcast.Subscriber, first broadcast.Frame, l *zap.Logger) {
	defer s.broadcaster.Unsubscribe(sub)

	if err := writeFrame(w, first); err != nil {
		l.Debug("Stream closed before connect", zap.Error(err))
		return
	}

	ticker := s.clock.NewTicker(s.keepalive)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-sub.Frames():
			if !ok {
				return
			}
			if err := writeFrame(w, frame); err != nil {
				l.Debug("Stream closed", zap.Error(err))
				return
			}
		case <-ticker.Chan():
			if _, err := w.Write(broadcast.Keepalive); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				l.Debug("Stream closed", zap.Error(err))
				return
			}
		}
	}
}

func writeFrame(w *bufio.Writer, f broadcast.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}
