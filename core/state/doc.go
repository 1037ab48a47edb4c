// Package state persists what the sync engine needs to resume after a
// restart: the change cursor and the last committed manifest.
//
// Store satisfies reconcile.TokenStore and manifest.Persister. Tables are
// created with AutoMigrate when the store is opened:
//
//	sync_cursors     one row per cursor, keyed by name
//	manifest_header  the committed version and its timestamp
//	manifest_assets  one row per asset of that version
//
// A snapshot is written in a single transaction so the header and asset rows
// never disagree.
package state
