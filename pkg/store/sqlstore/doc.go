// Package sqlstore implements project.Store on top of database/sql. It works
// with PostgreSQL (github.com/lib/pq) and SQLite (github.com/mattn/go-sqlite3);
// callers import the driver they need.
package sqlstore
