package shopping

import "fridge-app-go/internal/domain/errs"

var (
	ErrEntryNotFound    = errs.New(errs.KindNotFound, "shopping entry not found")
	ErrNoValidSelection = errs.New(errs.KindNoValidSelection, "choose items before adding to the shopping list")
	ErrSourceInvalid    = errs.New(errs.KindInvalidInput, "source must be fridge or threshold")
	ErrQuantityRequired = errs.New(errs.KindInvalidInput, "set a quantity before marking as bought")
	ErrExpiryRequired   = errs.New(errs.KindExpiryRequired, "set an expiry date before marking as bought")
	ErrNothingToUpdate  = errs.New(errs.KindInvalidInput, "quantity or target expiry is required")
)
