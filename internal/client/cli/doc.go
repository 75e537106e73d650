// Package cli provides the interactive SiteCrew field client.
//
// It wires configuration, the local state cache, the sync client and the
// services into a REPL. Two goroutines run next to it: the connectivity
// watcher, which flushes the offline queue on every reconnect, and the fall
// monitor.
//
// Key features:
//   - Login / Logout (the session survives restarts)
//   - Project and work order selection, cached for offline use
//   - Clock-in with geofence check, clock-out with notes
//   - Location pings, photos and receipts attached to the shift
//   - Offline queue inspection and manual flush
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
