package inventory

import "fridge-app-go/internal/domain/errs"

var (
	ErrItemNotFound     = errs.New(errs.KindNotFound, "item not found")
	ErrGroupNotFound    = errs.New(errs.KindNotFound, "item group not found")
	ErrBarcodeNotFound  = errs.New(errs.KindNotFound, "barcode not found")
	ErrNameRequired     = errs.New(errs.KindInvalidInput, "name is required")
	ErrQuantityInvalid  = errs.New(errs.KindInvalidInput, "quantity must be a positive number with at most 3 decimals")
	ErrThresholdInvalid = errs.New(errs.KindInvalidInput, "low threshold must be a non-negative number with at most 3 decimals")
	ErrAmountInvalid    = errs.New(errs.KindInvalidInput, "amount must be a positive number with at most 3 decimals")
	ErrNothingSelected  = errs.New(errs.KindInvalidInput, "choose items before removing them")
	ErrFilterInvalid    = errs.New(errs.KindInvalidInput, "filter must be one of all, expiring, low")
	ErrFridgeIDRequired = errs.New(errs.KindInvalidInput, "fridge id is required")
	ErrNotFridgeMember  = errs.New(errs.KindForbidden, "join this fridge first")
)
