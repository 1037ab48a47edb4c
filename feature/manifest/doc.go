// Package manifest serves the versioned asset manifest over HTTP.
//
//   - GET /manifest : {version, updatedAt, assets} for the caller's scope.
//     Filenames and URLs are relative to the scope.
//   - GET /manifest/version : {version}, for clients that only poll.
//
// A manifest read may start a drift check in the background. Requests are
// rate limited by the sync engine and never wait for the check.
package manifest
