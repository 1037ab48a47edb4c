// Package logger builds the application's zap logger.
//
// Debug level uses zap's development preset; other levels use the
// production preset. Format selects console or JSON encoding.
//
// WithRayID attaches the request id set by the rayid middleware so every
// line logged while serving a request can be correlated.
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
