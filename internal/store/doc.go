// Package store declares the persistence contracts the review core depends on:
// flashcard content lookups, per-learner schedule state and the append-only
// review audit log. Implementations live under internal/platform.
package store
