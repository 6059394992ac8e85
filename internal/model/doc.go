// Package model defines the domain entities, request/response types, and the
// ServiceResult error contract shared by every layer of the API.
//
// # Result Contract
//
// Service operations never return bare errors across their public boundary.
// Instead they return ServiceResult[T]: a success variant carrying data, or a
// failure variant carrying a ServiceError with a stable code and an HTTP-style
// status. Handlers translate the failure variant directly into a response.
//
// # Validation
//
// Request types expose Validate() []FieldError. Validation reports every
// violation, not just the first; the service layer joins them into a single
// failure message so a client sees all problems in one round trip.
package model
