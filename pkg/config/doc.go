// Package config loads module settings from instanceselect.yaml and
// INSTANCESELECT_* environment variables.
//
//	separators:
//	  current: "."
//	  legacy: ":"
//	texts:
//	  empty: No instances to select
//	migrate_legacy_values: true
//	storage:
//	  driver: sqlite3
//	  dsn: file:data.db
package config
