package common

import (
	"errors"
	"net/http"

	"fridge-app-go/internal/domain/errs"
	"fridge-app-go/pkg/logger"
)

const retryMessage = "something went wrong, please retry"

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindInvalidInput, errs.KindNoValidSelection:
		return http.StatusBadRequest
	case errs.KindForbidden, errs.KindNotMember:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindAlreadyMember, errs.KindOwnershipTransferRequired:
		return http.StatusConflict
	case errs.KindInsufficientStock, errs.KindExpiryRequired:
		return http.StatusUnprocessableEntity
	case errs.KindCodeGenerationExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError maps err to a status by its kind. Expected outcomes log as
// business errors; store failures log as internal errors and hide the cause.
func WriteDomainError(w http.ResponseWriter, log logger.Logger, op string, err error, args ...any) {
	writeDomainError(w, log, op, err, nil, args...)
}

// WritePartialError is WriteDomainError for operations that may have applied
// part of their work; partial is reported under details.applied.
func WritePartialError(w http.ResponseWriter, log logger.Logger, op string, err error, partial interface{}, args ...any) {
	writeDomainError(w, log, op, err, partial, args...)
}

func writeDomainError(w http.ResponseWriter, log logger.Logger, op string, err error, partial interface{}, args ...any) {
	kind := errs.KindOf(err)
	details := map[string]interface{}{}
	if partial != nil {
		details["applied"] = partial
	}

	body := errorBody{Code: string(kind), Message: err.Error()}
	if kind == errs.KindTransient {
		log.InternalError(op+": failed", err, args...)
		body.Message = retryMessage
	} else {
		log.BusinessError(op+": rejected", err, args...)
	}

	var stock *errs.InsufficientStockError
	if errors.As(err, &stock) {
		body.Message = "not enough stock"
		details["shortfalls"] = stock.Shortfalls
	}
	if len(details) > 0 {
		body.Details = details
	}
	writeJSON(w, statusFor(kind), errorEnvelope{Error: body})
}
