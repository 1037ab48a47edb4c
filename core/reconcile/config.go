package reconcile

import (
	"strings"
	"time"
)

// Config holds the sync schedule and limits.
type Config struct {
	// PollIntervalMs is how often the change feed is polled.
	PollIntervalMs int `mapstructure:"poll_interval_ms" default:"30000"`
	// DriftIntervalSeconds is the period of background drift checks. 0 disables them.
	DriftIntervalSeconds int `mapstructure:"drift_interval_seconds" default:"600"`
	// DriftOnReadSeconds is the minimum spacing of drift checks requested by
	// manifest reads. 0 disables them.
	DriftOnReadSeconds int `mapstructure:"drift_on_read_seconds" default:"60"`
	// MaxParentDepth bounds the parent walk of path resolution.
	MaxParentDepth int `mapstructure:"max_parent_depth" default:"20"`
	// Ignore is a comma separated list of glob patterns matched against
	// paths relative to the watched folder.
	Ignore string `mapstructure:"ignore" default:""`
	// ChannelTTLHours is the requested lifetime of push channels.
	ChannelTTLHours int `mapstructure:"channel_ttl_hours" default:"168"`
	// RenewMarginMinutes is how long before expiry a push channel is renewed.
	RenewMarginMinutes int `mapstructure:"renew_margin_minutes" default:"60"`
	// RenewRetrySeconds is the delay before retrying a failed registration.
	RenewRetrySeconds int `mapstructure:"renew_retry_seconds" default:"300"`
}

func (c Config) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c Config) DriftInterval() time.Duration {
	return time.Duration(c.DriftIntervalSeconds) * time.Second
}

func (c Config) DriftOnRead() time.Duration {
	return time.Duration(c.DriftOnReadSeconds) * time.Second
}

func (c Config) ParentDepth() int {
	if c.MaxParentDepth <= 0 {
		return 20
	}
	return c.MaxParentDepth
}

func (c Config) IgnorePatterns() []string {
	var patterns []string
	for _, p := range strings.Split(c.Ignore, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func (c Config) ChannelTTL() time.Duration {
	if c.ChannelTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.ChannelTTLHours) * time.Hour
}

func (c Config) RenewMargin() time.Duration {
	if c.RenewMarginMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.RenewMarginMinutes) * time.Minute
}

func (c Config) RenewRetry() time.Duration {
	if c.RenewRetrySeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.RenewRetrySeconds) * time.Second
}
