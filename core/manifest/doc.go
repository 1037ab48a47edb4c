// Package manifest holds the versioned record of what is cached.
//
// Writers (the sync engine, one pass at a time) stage mutations on a working
// set. Commit bumps the version, stamps UpdatedAt and publishes an immutable
// snapshot; readers only ever see published snapshots, so an asset never
// becomes visible without the version that introduced it.
package manifest
