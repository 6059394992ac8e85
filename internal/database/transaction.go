package database

import (
	"context"
	"fmt"
	"strings"
)

// Batch collects statements that must succeed or fail together, such as a
// bulk delete. Variables are namespaced per statement ($id becomes $v1_id) so
// statements built independently never collide.
//
// Like all transactions in this package the batch is sent in one round trip
// wrapped in BEGIN TRANSACTION / COMMIT TRANSACTION; there is no isolation
// between Add calls.
type Batch struct {
	statements []string
	vars       map[string]interface{}
	counter    int
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{
		statements: make([]string, 0),
		vars:       make(map[string]interface{}),
	}
}

// Add appends a statement, rewriting its variable names to be batch-unique.
func (b *Batch) Add(query string, vars map[string]interface{}) *Batch {
	rewritten := query
	for name, value := range vars {
		b.counter++
		unique := fmt.Sprintf("v%d_%s", b.counter, name)
		rewritten = strings.ReplaceAll(rewritten, "$"+name, "$"+unique)
		b.vars[unique] = value
	}
	b.statements = append(b.statements, rewritten)
	return b
}

// Len returns the number of statements in the batch
func (b *Batch) Len() int {
	return len(b.statements)
}

// Build returns the complete transaction query and merged variables. An empty
// batch builds to an empty query.
func (b *Batch) Build() (string, map[string]interface{}) {
	if len(b.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), b.vars
}

// Execute runs the batch atomically. An empty batch is a no-op.
func (b *Batch) Execute(ctx context.Context, db Database) error {
	query, vars := b.Build()
	if query == "" {
		return nil
	}
	_, err := db.Query(ctx, query, vars)
	return err
}
