// Package middleware groups the HTTP middleware of the Fiber application.
//
// # Components
//
//   - auth: validates tenant API keys and stores the granted scope in the
//     request context. Handlers read it back with auth.Scope.
//   - rayid: generates a request id for every incoming request, injecting it
//     into the context and the X-Ray-ID response header for tracing.
//
// rayid is registered first so that even rejected requests are traceable;
// auth guards every route registered after it.
package middleware
