// Package reconcile keeps the local cache in line with the watched remote
// folder.
//
// The Engine runs three kinds of pass, always one at a time:
//
//   - Full sync: anchor a change token, enumerate the tree, sync every file,
//     then prune manifest entries and cache bytes nothing owns anymore.
//   - Incremental sync: replay the change feed since the stored token.
//   - Drift check: re-enumerate the tree and repair whatever the change feed
//     missed (folder renames, dropped notifications).
//
// Every pass produces a PassResult. A pass that changed anything commits the
// manifest exactly once and broadcasts the change set.
//
// # Triggers
//
// A poll ticker and push notifications (webhook kicks, coalesced) queue
// incremental passes. A slower ticker runs drift checks. Reads of the
// manifest may request a drift check; those are rate limited, run in the
// background and are skipped when another pass is in flight.
//
// # Usage
//
//	engine, err := reconcile.New(reconcile.Options{
//	    Source:   source,
//	    Store:    store,
//	    Manifest: m,
//	    Notifier: hub,
//	    Tokens:   state,
//	    RootID:   cfg.Google.FolderID,
//	    Config:   cfg.Sync,
//	})
//	if err := engine.Start(ctx); err != nil { ... }
//	go engine.Run(ctx)
package reconcile
