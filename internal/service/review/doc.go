// Package review contains the review use cases of the scheduler: building
// prioritized review queues, recording reviews atomically with an audit
// trail, and aggregating learning statistics.
//
// The components coordinate the scheduling engine (internal/domain/srs) with
// the persistence interfaces defined in internal/store. They never depend on
// a concrete database; transactions are opened through store.RunInTransaction
// and the stores are rebound to them with WithTx.
//
// Error handling:
//   - validation failures are returned as domain.ErrValidation errors
//   - missing rows map to ErrScheduleNotFound and ErrFlashcardNotFound
//   - lost races map to ErrConcurrencyConflict, which callers may retry
//   - every other storage failure is a *ServiceError wrapping ErrPersistence
package review
