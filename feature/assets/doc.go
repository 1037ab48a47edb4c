// Package assets serves cached file bytes under /assets/<path>.
//
// The path is resolved relative to the caller's scope, so a key scoped to
// "tenantA" reading /assets/logo.png receives tenantA/logo.png. Paths with
// "." or ".." segments are rejected with 404, the same answer as a missing
// file.
package assets
