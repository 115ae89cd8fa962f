// Package client talks to the tamper-detection backend over HTTP.
//
// # Overview
//
//  1. HTTPClient.Do issues a request, attaches the current access token as a
//     bearer credential and, when the backend answers 401, asks the attached
//     Authenticator to refresh the session and reissues the request. Each
//     call carries an explicit retry budget; the typed endpoints use 1. A 401
//     on the reissued request logs the session out.
//  2. Typed endpoints: Login, Register, RefreshToken, History, Upload.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite database that backs the token store.
//
// # Error Handling
//
// Failures are reported as sentinel errors matched with errors.Is:
// ErrUnavailable when no response was received, ErrUnauthorized for a final
// 401. Any non-2xx answer is an *HTTPError carrying the status and the most
// specific message found in the body.
//
// # Concurrency
//
// HTTPClient is safe for concurrent use. A reissued request is sent only
// after the refresh has completed.
package client
