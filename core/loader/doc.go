// Package loader provides the plugin-like feature loading system.
//
// Each feature implements the Feature interface and mounts its own routes
// when loaded.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager holds the registry of features. Register adds one; LoadAll
// loads those that are enabled, in registration order.
//
// Features such as 'manifest', 'events' or 'integrity' are built and tested
// in isolation and only meet in cmd/start.go.
package loader
