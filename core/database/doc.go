// Package database opens the state database and inspects its schema.
//
// It wraps GORM and picks the dialector from configuration: a local SQLite
// file by default, or MySQL when several deployments share one server.
//
// # Connect
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer database.Close(db)
//
// # Schema Inspection
//
// TableColumns and MissingColumns read the live schema. The integrity check
// uses them to confirm the state tables still carry the columns the sync
// state is stored in.
package database
