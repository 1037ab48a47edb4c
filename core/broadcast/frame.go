package broadcast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"drive-cache/core/manifest"
)

const (
	EventConnected = "connected"
	EventUpdate    = "update"
)

// Frame is one server-sent event.
type Frame struct {
	ID    string
	Event string
	Data  any
}

// ConnectedPayload is sent once when a stream opens.
type ConnectedPayload struct {
	Version    int64 `json:"version"`
	AssetCount int   `json:"assetCount"`
}

// UpdatePayload announces a committed version.
type UpdatePayload struct {
	Version   int64             `json:"version"`
	Changed   []manifest.Change `json:"changed"`
	Timestamp time.Time         `json:"timestamp"`
}

// Encode renders the frame in text/event-stream format.
func (f Frame) Encode() ([]byte, error) {
	data, err := json.Marshal(f.Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Event, err)
	}

	var buf bytes.Buffer
	if f.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", f.ID)
	}
	if f.Event != "" {
		fmt.Fprintf(&buf, "event: %s\n", f.Event)
	}
	fmt.Fprintf(&buf, "data: %s\n\n", data)
	return buf.Bytes(), nil
}

// Keepalive is an SSE comment that keeps idle proxies from closing the stream.
var Keepalive = []byte(": keepalive\n\n")
