// Package models defines server-side data models persisted in the database.
package models

import "time"

// Roles known to the backend.
const (
	RoleWorker     = "worker"
	RoleSupervisor = "supervisor"
)

type User struct {
	ID              string
	Email           string
	Name            string
	Role            string
	PasswordHash    string
	EnforceGeofence bool
	CreatedAt       time.Time
}
