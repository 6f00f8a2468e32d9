package api

import (
	"context"
	"errors"

	"StockInsight/internal/usecase"
	xhttp "StockInsight/pkg/http"
)

// toAppError maps use-case failures onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrUnknownSymbol):
		return xhttp.NotFoundError("symbol is not tracked").WithError(err)
	case errors.Is(err, usecase.ErrInsufficientHistory):
		return xhttp.UnprocessableError("not enough price history to forecast").WithError(err)
	case errors.Is(err, usecase.ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		return xhttp.BadGatewayError("price provider unavailable or API limit reached").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
