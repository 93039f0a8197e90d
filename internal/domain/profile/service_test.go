package profile

import (
	"context"
	"errors"
	"testing"

	"fridge-app-go/internal/domain/change"
	"fridge-app-go/internal/domain/errs"
)

type fakeProfileRepo struct {
	profiles map[string]*Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*Profile)}
}

func (r *fakeProfileRepo) CreateIfMissing(ctx context.Context, profile *Profile) (*Profile, bool, error) {
	if existing, ok := r.profiles[profile.UserID]; ok {
		copied := *existing
		return &copied, false, nil
	}
	stored := *profile
	r.profiles[profile.UserID] = &stored
	copied := stored
	return &copied, true, nil
}

func (r *fakeProfileRepo) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	existing, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	copied := *existing
	return &copied, nil
}

func (r *fakeProfileRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	existing, ok := r.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	existing.DisplayName = displayName
	return nil
}

func TestEnsureProfileDefaultsDisplayName(t *testing.T) {
	cases := []struct {
		name  string
		email string
		want  string
	}{
		{"  Alice ", "a@example.com", "Alice"},
		{"", "bob.smith@example.com", "bob.smith"},
		{"", "", DefaultDisplayName},
		{"", "not-an-email", DefaultDisplayName},
	}
	for i, tc := range cases {
		repo := newFakeProfileRepo()
		svc := NewService(repo, nil)

		got, err := svc.EnsureProfile(context.Background(), "user-1", tc.email, tc.name)
		if err != nil {
			t.Fatalf("case %d: expected no error, got %v", i, err)
		}
		if got.DisplayName != tc.want {
			t.Fatalf("case %d: expected %q, got %q", i, tc.want, got.DisplayName)
		}
	}
}

func TestEnsureProfileKeepsExisting(t *testing.T) {
	repo := newFakeProfileRepo()
	fridgeID := "fridge-1"
	repo.profiles["user-1"] = &Profile{UserID: "user-1", DisplayName: "Chef", CurrentFridgeID: &fridgeID}
	rec := &change.Recorder{}
	svc := NewService(repo, rec)

	got, err := svc.EnsureProfile(context.Background(), "user-1", "other@example.com", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.DisplayName != "Chef" || got.CurrentFridgeID == nil || *got.CurrentFridgeID != fridgeID {
		t.Fatalf("expected existing profile untouched, got %+v", got)
	}
	if len(rec.Events) != 0 {
		t.Fatalf("expected no change event for existing profile, got %v", rec.Topics())
	}
}

func TestEnsureProfileRequiresUserID(t *testing.T) {
	svc := NewService(newFakeProfileRepo(), nil)
	_, err := svc.EnsureProfile(context.Background(), "  ", "", "")
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profiles["user-1"] = &Profile{UserID: "user-1", DisplayName: "old"}
	rec := &change.Recorder{}
	svc := NewService(repo, rec)

	got, err := svc.UpdateProfile(context.Background(), "user-1", "  New Name ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.DisplayName != "New Name" {
		t.Fatalf("expected trimmed name, got %q", got.DisplayName)
	}
	if !rec.Has(change.UserTopic("user-1"), change.CollectionProfile) {
		t.Fatalf("expected profile change event")
	}

	if _, err := svc.UpdateProfile(context.Background(), "user-1", "   "); !errors.Is(err, ErrDisplayNameInvalid) {
		t.Fatalf("expected ErrDisplayNameInvalid, got %v", err)
	}
	if _, err := svc.UpdateProfile(context.Background(), "missing", "Name"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
