// Package srs implements the spaced repetition scheduling engine: an SM-2
// variant that turns a review quality into the next schedule state, plus the
// queue ordering, batch sizing and statistics policies built on it.
//
// Everything here is deterministic and free of I/O. The current time is
// always passed in by the caller.
package srs
