// Package postgres provides PostgreSQL-specific implementations for the
// storage interfaces defined in the internal/store package: review
// schedules, the review audit log and the read-only flashcard view. It also
// owns the embedded schema migrations for PostgreSQL.
//
// Queries run through store.DBTX so that every store can operate on either
// a *sql.DB or a *sql.Tx obtained from store.RunInTransaction.
package postgres
