// Package models defines client-side data models used by the SiteCrew CLI.
package models

// Session is the authenticated identity persisted after login and attached
// to every authenticated request.
type Session struct {
	AuthToken string
	UserID    string
	UserEmail string
	UserName  string
	UserRole  string

	// EnforceGeofence is the employer setting that gates clock-in on distance
	// to the project site.
	EnforceGeofence bool
}

// Valid reports whether the session carries the two values every
// authenticated request needs.
func (s *Session) Valid() bool {
	return s != nil && s.AuthToken != "" && s.UserID != ""
}
