package database

import (
	"context"
	"errors"
)

// Sentinel errors for data operations. Callers match them with errors.Is;
// the repository layer translates them into service error codes.
var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrConnection = errors.New("database connection error")
	ErrQuery      = errors.New("query error")
)

// Database is the storage contract the repositories program against. The
// SurrealDB implementation is the only one in production; tests substitute
// in-memory fakes at the repository interface instead.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query runs one or more statements and returns each statement's
	// result wrapped as {status, result}.
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne runs a query expected to yield a single record. It returns
	// ErrNotFound when the query matches nothing.
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a mutation, discarding any results.
	Execute(ctx context.Context, query string, vars map[string]interface{}) error

	// BeginTx starts a batch-based transaction.
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction accumulates statements and applies them atomically on Commit.
type Transaction interface {
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
	Commit() error
	Rollback() error
}

// Config holds database connection settings
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
