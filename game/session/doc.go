// Package session provides session management for the peg race game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs, matched case-insensitively
//   - Expiry of idle sessions
//   - Pluggable persistence: JSON files or an embedded SQLite database
//
// Persistence:
//
// A persisted session stores its preset and an engine snapshot: the current layout,
// the player to move, the last roll and whether moves are on offer. Offered moves are
// recomputed on load, so a session restored between roll and move resumes exactly
// where it stopped.
//
// Usage:
//
//	store, err := session.OpenSQLitePersistence("sessions/pegrace.db", configMgr)
//	manager := session.NewManagerWithPersistence(store, session.WithLogger(log))
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Warn(err)
//	}
package session
