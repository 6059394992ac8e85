// Package repository implements the data access layer for the CritForge API.
//
// Each repository struct handles CRUD operations for one domain entity. All
// repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database connection
//   - Methods implement specific data operations (Create, GetByID, Update, Delete, etc.)
//   - SurrealQL queries are used for all database interactions
//   - Results are parsed and mapped to model structs
//
// No authorization or business rules live here; services own those.
//
// # Identifiers
//
// API-visible entity ids are bare 24-character hex strings. Repositories wrap
// them into SurrealDB record ids (table:id) on the way in and strip the table
// prefix on the way out, so nothing above this package ever sees a record id.
//
// # Query Patterns
//
//   - Parameterized queries with $variable syntax for security
//   - type::record() for safe ID handling
//   - time::now() for automatic timestamps
//   - Dynamic CONTENT / SET clauses built only from fields that are present
package repository
