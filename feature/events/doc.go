// Package events streams manifest updates to clients as server-sent events.
//
// GET /sse/events opens a stream scoped to the caller's key. EventSource
// clients that cannot set headers pass the key as ?key=. The stream starts
// with a "connected" event carrying the version and the number of visible
// assets, then relays "update" events from the broadcaster. An SSE comment is
// written on idle streams so proxies keep them open.
//
//	event: connected
//	data: {"version":12,"assetCount":40}
//
//	id: 13
//	event: update
//	data: {"version":13,"changed":[{"id":"1a2b","name":"logo.png","action":"updated"}],"timestamp":"..."}
package events
