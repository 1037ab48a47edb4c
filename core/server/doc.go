// Package server holds the HTTP server configuration.
//
// Besides the listen port it carries the tenant API keys. Each key is bound
// to a scope, a top-level folder of the mirrored tree, and a request
// authenticated with it only ever sees assets below that folder:
//
//	SERVER_API_KEYS="tenantA:3f9c...,tenantB:8a1d..."
//
// WebhookURL is the public address registered with the remote for push
// notifications. Leaving it empty runs the cache in polling mode.
package server
