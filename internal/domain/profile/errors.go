package profile

import "fridge-app-go/internal/domain/errs"

var (
	ErrProfileNotFound    = errs.New(errs.KindNotFound, "profile not found")
	ErrDisplayNameInvalid = errs.New(errs.KindInvalidInput, "display name must be 1-80 characters")
	ErrUserIDRequired     = errs.New(errs.KindInvalidInput, "user id is required")
)
