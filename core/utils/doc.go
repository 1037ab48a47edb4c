// Package utils provides small helpers shared by the sync engine, the cache
// store and the HTTP features: content hashing and slash-path manipulation.
package utils
