package profile

import (
	"context"
	"strings"
	"unicode/utf8"

	"fridge-app-go/internal/domain/change"
)

type Service struct {
	repo     Repository
	notifier change.Notifier
}

func NewService(repo Repository, notifier change.Notifier) *Service {
	if notifier == nil {
		notifier = change.Nop()
	}
	return &Service{repo: repo, notifier: notifier}
}

// EnsureProfile bootstraps the profile of an authenticated user. Existing
// profiles are returned untouched.
func (s *Service) EnsureProfile(ctx context.Context, userID, email, name string) (*Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	candidate := Profile{
		UserID:      userID,
		DisplayName: defaultDisplayName(name, email),
	}
	if email = strings.TrimSpace(email); email != "" {
		candidate.Email = &email
	}

	stored, created, err := s.repo.CreateIfMissing(ctx, &candidate)
	if err != nil {
		return nil, err
	}
	if created {
		s.notifier.Notify(ctx, change.ForUser(userID, change.CollectionProfile))
	}
	return stored, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID, displayName string) (*Profile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return nil, ErrDisplayNameInvalid
	}

	if err := s.repo.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, change.ForUser(userID, change.CollectionProfile))

	return s.repo.GetProfile(ctx, userID)
}

func defaultDisplayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if local, _, found := strings.Cut(strings.TrimSpace(email), "@"); found && local != "" {
		return local
	}
	return DefaultDisplayName
}
