package fridge

import "fridge-app-go/internal/domain/errs"

var (
	ErrFridgeNotFound          = errs.New(errs.KindNotFound, "fridge not found")
	ErrInviteCodeNotFound      = errs.New(errs.KindNotFound, "invite code not found")
	ErrMemberNotFound          = errs.New(errs.KindNotFound, "member not found")
	ErrFridgeIDRequired        = errs.New(errs.KindInvalidInput, "fridge id is required")
	ErrInviteCodeRequired      = errs.New(errs.KindInvalidInput, "invite code is required")
	ErrFridgeNameInvalid       = errs.New(errs.KindInvalidInput, "fridge name must be 1-80 characters")
	ErrSameOwner               = errs.New(errs.KindInvalidInput, "new owner must differ from the current owner")
	ErrMembershipNotFound      = errs.New(errs.KindNotMember, "join a fridge first")
	ErrNewOwnerNotMember       = errs.New(errs.KindNotMember, "new owner must be a member of this fridge")
	ErrRosterMirrorMissing     = errs.New(errs.KindNotMember, "fridge roster has no entry for this membership")
	ErrAlreadyMember           = errs.New(errs.KindAlreadyMember, "already a member of this fridge")
	ErrNotFridgeMember         = errs.New(errs.KindForbidden, "you are not a member of this fridge")
	ErrNotOwner                = errs.New(errs.KindForbidden, "only the owner can do this")
	ErrOwnerMustTransfer       = errs.New(errs.KindOwnershipTransferRequired, "transfer ownership before leaving")
	ErrCodeGenerationExhausted = errs.New(errs.KindCodeGenerationExhausted, "could not generate a unique invite code")
	ErrInviteCodeTaken         = errs.New(errs.KindCodeGenerationExhausted, "invite code already taken")
)
