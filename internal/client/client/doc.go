// Package client contains the CLI's transport to the SimKeeper API.
//
// # Overview
//
// The package provides:
//  1. The API contract (see the Client interface): account calls
//     (Register, Login, Logout, Me, VerifyTum), simulation CRUD and a
//     health probe.
//  2. A JSON-over-HTTP implementation (see HTTPClient) that attaches the
//     bearer token and maps error responses to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite session store.
//
// # Error Handling
//
// Transport failures match ErrUnavailable, 401 answers match ErrUnauthorized
// and 404 answers match ErrNotFound via errors.Is. Every non-2xx answer is an
// *APIError carrying the server's message and per-field errors.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept a
// context.Context and honor its cancellation.
package client
