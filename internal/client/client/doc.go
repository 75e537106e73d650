// Package client is the client-side transport to the SiteCrew backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the API interface): Login, Ping,
//     Projects, Do for arbitrary JSON mutations and Upload for multipart
//     media.
//  2. A concrete HTTPS/JSON implementation (see HTTPClient) that injects the
//     session's bearer token and user id, forwards an optional
//     Idempotency-Key and maps transport failures and statuses to sentinel
//     errors.
//  3. Typed request/response schemas validated at the boundary with
//     go-playground/validator.
//
// # Error Handling
//
// Callers match with errors.Is: ErrUnavailable (no route to the backend),
// ErrUnauthorized (401), ErrInvalidResponse (schema violation). Any other
// non-2xx answer is an *HTTPError carrying the status and body.
//
// All operations accept context.Context and honor cancellation. The client
// adds no timeouts or retries of its own beyond the underlying http.Client.
package client
