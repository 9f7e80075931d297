// Package domain contains the core entities of the review scheduler: the
// per-card schedule state, the append-only review audit record, the transient
// queue item and the statistics value objects. It is independent of any
// storage or delivery mechanism.
package domain
