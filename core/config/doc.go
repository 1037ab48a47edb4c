// Package config loads the application configuration.
//
// Values come from the environment, optionally seeded from a .env file, with
// defaults taken from the `default` struct tags of each section. Nested keys
// map to upper-case variables joined by underscores, so google.folder_id is
// read from GOOGLE_FOLDER_ID.
//
// # Configuration Structure
//
//   - Server: listen port, tenant API keys, webhook address
//   - Google: credentials and the watched folder id
//   - Sync: poll and drift intervals, ignore patterns, push channel lifetime
//   - Storage: disk directory or S3/MinIO bucket for cached bytes
//   - Database: state database (sqlite file or mysql)
//   - Log: level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Server.Port)
package config
