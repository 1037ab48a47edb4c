// Package remote is the change source the cache mirrors: a Google Drive
// folder read through the Drive v3 and Sheets v4 APIs.
//
// Source is the narrow interface the sync engine depends on. DriveSource is
// the production implementation; every call carries the caller's context and
// is retried with exponential backoff on rate limits and server errors.
// A rejected change token surfaces as ErrTokenInvalid so the engine can fall
// back to a full sync.
package remote
