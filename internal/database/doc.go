// Package database provides database connectivity for the CritForge API.
//
// The Database interface abstracts SurrealDB so repositories never touch the
// driver directly. Three query shapes cover everything the repositories need:
//
//   - Query: multiple results (list SELECTs)
//   - QueryOne: exactly one result (SELECT by id)
//   - Execute: mutations with no result (CREATE/UPDATE/DELETE)
//
// # Transactions
//
// Transactions are BATCH-BASED, not connection-level. BeginTx accumulates
// statements in memory; Commit wraps them in BEGIN TRANSACTION / COMMIT
// TRANSACTION and sends them in one round trip. There is no isolation between
// Add calls, and Rollback simply discards the pending statements. The Batch
// helper in transaction.go is the preferred entry point for all-or-nothing
// mutations such as bulk deletes.
//
// # Errors
//
// Failures map onto sentinel errors checked with errors.Is:
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique constraint violation
//   - ErrConnection: connectivity failure
//   - ErrQuery: query execution failure
package database
