package profile

import "context"

type Repository interface {
	// CreateIfMissing inserts profile unless a row for the user exists and
	// returns the stored row either way.
	CreateIfMissing(ctx context.Context, profile *Profile) (*Profile, bool, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
}
