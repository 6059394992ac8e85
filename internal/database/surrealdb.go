package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements the Database interface over the SurrealDB WebSocket
// driver.
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates an unconnected instance; call Connect before use.
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Connect dials the endpoint, signs in, and selects the namespace and
// database.
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if _, err := db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	}); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close(context.Background())
}

// Ping checks the connection by asking the server for its version.
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// duplicateOrQueryErr classifies a driver error, so unique index violations
// surface as ErrDuplicate rather than a generic query failure.
func duplicateOrQueryErr(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "already contains") || strings.Contains(msg, "unique") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return fmt.Errorf("%w: %v", ErrQuery, err)
}

// Query executes a query and returns results. Each statement's result is
// wrapped as {status, result} so repositories can unwrap uniformly.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, duplicateOrQueryErr(err)
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, duplicateOrQueryErr(r.Error)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	return output, nil
}

// QueryOne runs a query and returns the first record of the first statement,
// or ErrNotFound when the query matched nothing.
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return unwrapFirst(results[0])
}

// unwrapFirst strips the {status, result} wrapper and picks the first row.
func unwrapFirst(statement interface{}) (interface{}, error) {
	resp, ok := statement.(map[string]interface{})
	if !ok {
		return statement, nil
	}
	if status, ok := resp["status"].(string); !ok || status != "OK" {
		return statement, nil
	}
	if rows, ok := resp["result"].([]interface{}); ok {
		if len(rows) == 0 {
			return nil, ErrNotFound
		}
		return rows[0], nil
	}
	// Scalar result, return as-is.
	return resp["result"], nil
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// BeginTx starts a new batch-based transaction
func (s *SurrealDB) BeginTx(ctx context.Context) (Transaction, error) {
	if s.db == nil {
		return nil, ErrConnection
	}
	return &SurrealTransaction{db: s.db, ctx: ctx}, nil
}

// SurrealTransaction implements Transaction for SurrealDB. Statements
// accumulate until Commit, which sends them as one atomic block.
type SurrealTransaction struct {
	db        *surrealdb.DB
	ctx       context.Context
	pending   []pendingStatement
	committed bool
}

type pendingStatement struct {
	query string
	vars  map[string]interface{}
}

func (t *SurrealTransaction) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	t.pending = append(t.pending, pendingStatement{query: query, vars: vars})
	return nil
}

// Commit sends the accumulated statements wrapped in BEGIN/COMMIT
// TRANSACTION. Statement vars are merged, so callers must keep variable
// names distinct across statements (see Batch).
func (t *SurrealTransaction) Commit() error {
	if t.committed {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range t.pending {
		sb.WriteString(stmt.query)
		if !strings.HasSuffix(strings.TrimSpace(stmt.query), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	vars := make(map[string]interface{})
	for _, stmt := range t.pending {
		for k, v := range stmt.vars {
			vars[k] = v
		}
	}

	if _, err := surrealdb.Query[interface{}](t.ctx, t.db, sb.String(), vars); err != nil {
		return fmt.Errorf("%w: commit failed: %v", ErrQuery, err)
	}
	t.committed = true
	return nil
}

// Rollback discards the accumulated statements. Nothing was sent yet, so
// there is nothing to undo server-side.
func (t *SurrealTransaction) Rollback() error {
	t.pending = nil
	return nil
}
