// Package session keeps the bounded per-user conversation histories in memory.
//
// Invariants:
//   - A session never holds more than the configured number of turns; the
//     oldest turns are evicted first.
//   - Turn timestamps never decrease within a session.
//   - Get returns copies, so callers cannot mutate stored turns.
//
// Events of one user are serialized with Lock; different users never block
// each other except for the short map critical sections.
package session
