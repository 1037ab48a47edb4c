package webhook

import (
	"go.uber.org/zap"
)

// Resource states sent in X-Goog-Resource-State.
const (
	StateSync   = "sync"
	StateChange = "change"
)

// Syncer is the part of the sync engine the webhook drives.
type Syncer interface {
	VerifyChannel(channelID, token string) bool
	Trigger()
}

// Service turns push notifications into sync kicks.
type Service struct {
	syncer Syncer
	logger *zap.Logger
}

// NewService creates a new webhook service.
func NewService(syncer Syncer, logger *zap.Logger) *Service {
	return &Service{syncer: syncer, logger: logger}
}

// Notification is one push delivery.
type Notification struct {
	ChannelID string
	Token     string
	State     string
	MessageID string
}

// Handle reports whether the notification came from the active channel and,
// for change notifications, queues an incremental pass.
func (s *Service) Handle(n Notification) bool {
	if !s.syncer.VerifyChannel(n.ChannelID, n.Token) {
		return false
	}
	if n.State == StateChange {
		s.syncer.Trigger()
	}
	return true
}
