// Package sqlite implements the internal/store interfaces on an embedded
// SQLite database using the pure-Go modernc.org/sqlite driver. It is meant
// for single-node deployments, local development and the always-on store
// test suite.
//
// Timestamps are stored as INTEGER unix milliseconds and UUIDs as TEXT.
// Connections open write transactions with BEGIN IMMEDIATE, so concurrent
// reviews of the same card are serialized by the database lock.
package sqlite
