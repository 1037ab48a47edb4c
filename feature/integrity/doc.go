// Package integrity checks that the cache and the state database agree with
// the manifest.
//
// # Checks Provided
//
//   - Cache: every manifest entry has its file, every file hashes to the
//     recorded value, and no file exists that no entry owns.
//   - Schema: the state tables carry every column the sync state is stored in.
//
// Findings become a Plan of actions (delete orphan, refetch item). ApplyPlan
// only executes a plan when the caller confirmed it and did not ask for a dry
// run, the same contract the CLI exposes through --fix and --yes.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks (supports ?fix=true).
//   - GET /integrity/cache : Runs the cache check (supports ?fix=true).
//   - GET /integrity/schema : Runs the schema check.
//
// The routes cover every tenant and are limited to whole-cache keys.
package integrity
