// Package webhook receives Google Drive push notifications at
// POST /webhook/drive.
//
// The route is not behind API keys. A notification is accepted only when its
// channel id and token match the channel the sync engine registered. The
// initial "sync" notification is acknowledged; "change" queues an
// incremental pass and returns immediately.
package webhook
