// Package handler provides HTTP request handlers for the CritForge API.
//
// The handler package contains all HTTP endpoint implementations organized by
// domain. Each handler struct encapsulates the service it fronts
// (authentication, characters, encounters, export, users).
//
// # Handler Pattern
//
// All handlers follow a consistent pattern:
//
//   - Constructor function (NewXxxHandler) accepts the service it fronts
//   - Methods handle specific HTTP endpoints
//   - Response helpers from response.go standardize output format
//   - Service results are written as-is: handlers translate, they never decide
//
// # Response Format
//
// Every response carries the same envelope. Successful calls return
// {"success": true, "data": ...}; failures return {"success": false,
// "error": {"message", "code", "statusCode"}}. The HTTP status mirrors the
// statusCode inside the envelope.
//
// # Authentication
//
// Most handlers require authentication via JWT tokens. The auth middleware
// extracts the user ID and makes it available via middleware.GetUserID(ctx).
// Share-link viewing runs behind optional authentication instead.
//
// # Example Usage
//
//	h := NewEncounterHandler(encounterService)
//	mux.Handle("GET /v1/encounters", auth(http.HandlerFunc(h.List)))
//	mux.Handle("POST /v1/encounters", auth(http.HandlerFunc(h.Create)))
package handler
