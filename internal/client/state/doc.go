// Package state is the client's local state cache: a single SQLite database
// holding the session, the open shift, staged media, the offline mutation
// queue and the fall monitor's pending event.
//
// Typed stores (SessionStore, ClockStateStore, ProjectStore, MediaStore,
// OfflineQueueStore, FallStore) sit on top of the raw repositories in
// internal/client/repositories. A State bundles them; State.WithTx runs a
// group of store calls atomically, so a state transition either lands as a
// whole or not at all.
//
// The database is opened with a single connection. Code running inside a
// WithTx callback must use the State it is handed, never the outer one.
package state
