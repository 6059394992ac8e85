// Package service implements the business logic layer for the CritForge API.
//
// Services sit between HTTP handlers and repositories. They own validation,
// authorization, sanitization, and orchestration; repositories stay dumb.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods implement business operations with proper validation
//   - Context is passed through for cancellation and request-scoped values
//
// # Repository Interfaces
//
// Services define their own repository interfaces, allowing:
//
//   - Easy mocking for unit tests
//   - Decoupling from specific database implementations
//   - Clear contracts for data access requirements
//
// # Results
//
// Every operation returns a model.ServiceResult rather than a bare error. A
// failure carries a stable machine code, a human message, and the HTTP status
// handlers should report. The wrappers in ops.go keep the mapping from
// repository errors to result codes in one place:
//
//	result := service.GetCharacter(ctx, userID, charID)
//	if !result.Success {
//	    // result.Error.Code, result.Error.StatusCode
//	}
package service
