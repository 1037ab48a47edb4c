// Package broadcast fans manifest change notifications out to live,
// tenant-scoped subscribers.
//
// Delivery is non-blocking and at most once: each subscriber owns a small
// buffered channel and frames that do not fit are dropped with a warning. A
// client that misses a frame catches up from the next version it sees.
package broadcast
