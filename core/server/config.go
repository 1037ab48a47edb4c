package server

import (
	"fmt"
	"strings"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"3100"`
	// ApiKeys grants tenants access, as comma separated scope:key pairs.
	// A pair with an empty scope grants the whole cache.
	ApiKeys string `mapstructure:"api_keys" default:""`
	// WebhookURL is the public address of the push notification endpoint.
	// Push channels are disabled when empty.
	WebhookURL string `mapstructure:"webhook_url" default:""`
	// KeepaliveSeconds is the interval of SSE keepalive comments.
	KeepaliveSeconds int `mapstructure:"keepalive_seconds" default:"30"`
}

// Keys parses ApiKeys into a key to scope map.
func (c Config) Keys() (map[string]string, error) {
	keys := make(map[string]string)
	for _, pair := range strings.Split(c.ApiKeys, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		scope, key, ok := strings.Cut(pair, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed api key entry %q, want scope:key", pair)
		}
		scope = strings.Trim(strings.TrimSpace(scope), "/")
		if prev, dup := keys[key]; dup && prev != scope {
			return nil, fmt.Errorf("api key reused for scopes %q and %q", prev, scope)
		}
		keys[key] = scope
	}
	return keys, nil
}
