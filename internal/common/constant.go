// Package common contains shared constants and sentinel errors used across
// SiteCrew components.
package common

// Header names shared by the client transport and the backend middleware.
const (
	AuthorizationHeaderName  = "Authorization"
	UserIDHeaderName         = "X-User-ID"
	IdempotencyKeyHeaderName = "Idempotency-Key"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "
)
