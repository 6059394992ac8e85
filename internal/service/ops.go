package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/critforge/api/internal/model"
)

// The wrappers below are the single place where raw errors become failure
// results. An operation that already produced a *model.ServiceError keeps its
// code and message; anything else is classified by the wrapper it ran under.

// Execute runs a store-backed operation and classifies unexpected errors as
// DATABASE_ERROR.
func Execute[T any](ctx context.Context, op func(context.Context) (T, error), failMsg string) model.ServiceResult[T] {
	data, err := op(ctx)
	if err != nil {
		return failure[T](err, model.CodeDatabaseError, failMsg)
	}
	return model.OK(data)
}

// ExecuteSync runs a pure computation and classifies unexpected errors as
// OPERATION_FAILED.
func ExecuteSync[T any](op func() (T, error), failMsg string) model.ServiceResult[T] {
	data, err := op()
	if err != nil {
		return failure[T](err, model.CodeOperationFailed, failMsg)
	}
	return model.OK(data)
}

// ExecuteWithCustomError runs an operation and classifies unexpected errors
// under the given code.
func ExecuteWithCustomError[T any](ctx context.Context, op func(context.Context) (T, error), code model.ErrorCode, failMsg string) model.ServiceResult[T] {
	data, err := op(ctx)
	if err != nil {
		return failure[T](err, code, failMsg)
	}
	return model.OK(data)
}

// ExecuteSequence runs steps in order, stopping at the first failure and
// returning that step's error verbatim. Only when every step succeeds does
// finalOp run, its errors classified as in Execute.
func ExecuteSequence[T any](ctx context.Context, steps []func(context.Context) *model.ServiceError, finalOp func(context.Context) (T, error), failMsg string) model.ServiceResult[T] {
	for _, step := range steps {
		if serr := step(ctx); serr != nil {
			return model.Fail[T](serr)
		}
	}
	return Execute(ctx, finalOp, failMsg)
}

// ExecuteWithChecks runs pre-checks before the operation. The first failing
// check short-circuits; the operation never runs.
func ExecuteWithChecks[T any](ctx context.Context, checks []func() *model.ServiceError, op func(context.Context) (T, error), failMsg string) model.ServiceResult[T] {
	for _, check := range checks {
		if serr := check(); serr != nil {
			return model.Fail[T](serr)
		}
	}
	return Execute(ctx, op, failMsg)
}

// BulkFailure records one failed item in a bulk operation.
type BulkFailure struct {
	Index int                 `json:"index"`
	Error *model.ServiceError `json:"error"`
}

// BulkResult aggregates per-item outcomes of a bulk operation.
type BulkResult[R any] struct {
	Successful []R           `json:"successful"`
	Failed     []BulkFailure `json:"failed"`
}

// ExecuteBulk applies op to each item independently and collects per-item
// outcomes. Item failures never abort the loop. An empty input is a success
// with empty lists and op is never invoked.
func ExecuteBulk[T, R any](ctx context.Context, items []T, op func(context.Context, T) model.ServiceResult[R]) model.ServiceResult[BulkResult[R]] {
	result := BulkResult[R]{
		Successful: make([]R, 0, len(items)),
		Failed:     make([]BulkFailure, 0),
	}

	for i, item := range items {
		itemResult := op(ctx, item)
		if itemResult.Success {
			result.Successful = append(result.Successful, itemResult.Data)
		} else {
			result.Failed = append(result.Failed, BulkFailure{Index: i, Error: itemResult.Error})
		}
	}

	return model.OK(result)
}

// failure converts err to a failure result, preserving an embedded
// *model.ServiceError when one is present. Anything else keeps its original
// message behind the operation name for diagnostics.
func failure[T any](err error, code model.ErrorCode, failMsg string) model.ServiceResult[T] {
	var serr *model.ServiceError
	if errors.As(err, &serr) {
		return model.Fail[T](serr)
	}
	return model.Fail[T](model.NewServiceError(code, fmt.Sprintf("%s: %s", failMsg, err)))
}
