package fridge

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetFridge(ctx context.Context, fridgeID string) (*Fridge, error)
	ListFridgesByIDs(ctx context.Context, fridgeIDs []string) ([]Fridge, error)
	CreateFridge(ctx context.Context, fridge *Fridge) error
	UpdateFridgeName(ctx context.Context, fridgeID, name string) error
	UpdateFridgeOwner(ctx context.Context, fridgeID, ownerID string) error
	DeleteFridge(ctx context.Context, fridgeID string) error

	ResolveInviteCode(ctx context.Context, code string) (string, error)
	IsCodeTaken(ctx context.Context, code string) (bool, error)
	CreateInviteCode(ctx context.Context, code *InviteCode) error
	DeleteInviteCodes(ctx context.Context, fridgeID string) error

	AddMember(ctx context.Context, member *FridgeMember) error
	GetMember(ctx context.Context, fridgeID, userID string) (*FridgeMember, error)
	ListMembers(ctx context.Context, fridgeID string) ([]FridgeMember, error)
	ListMembersByUser(ctx context.Context, userID string) ([]FridgeMember, error)
	ListMembersWithProfiles(ctx context.Context, fridgeID string) ([]MemberProfile, error)
	CountMembers(ctx context.Context, fridgeID string) (int64, error)
	UpdateMemberRole(ctx context.Context, fridgeID, userID string, role Role) error
	DeleteMember(ctx context.Context, fridgeID, userID string) error
	DeleteMembersByFridge(ctx context.Context, fridgeID string) error

	AddMembership(ctx context.Context, membership *Membership) error
	GetMembership(ctx context.Context, userID, fridgeID string) (*Membership, error)
	ListMemberships(ctx context.Context, userID string) ([]Membership, error)
	ListMembershipsByFridge(ctx context.Context, fridgeID string) ([]Membership, error)
	UpdateMembershipRole(ctx context.Context, userID, fridgeID string, role Role) error
	DeleteMembership(ctx context.Context, userID, fridgeID string) error
	DeleteMembershipsByFridge(ctx context.Context, fridgeID string) error

	GetCurrentFridge(ctx context.Context, userID string) (*string, error)
	SetCurrentFridge(ctx context.Context, userID string, fridgeID *string) error
	SetCurrentFridgeIfEmpty(ctx context.Context, userID, fridgeID string) error
	ClearCurrentFridgeIf(ctx context.Context, userID, fridgeID string) error
	ClearCurrentFridgeForFridge(ctx context.Context, fridgeID string) error

	DeleteStockByFridge(ctx context.Context, fridgeID string) error
	DeleteShoppingByFridge(ctx context.Context, fridgeID string) error
}
