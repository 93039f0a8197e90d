package fridge

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"fridge-app-go/internal/domain/change"

	"github.com/google/uuid"
)

const (
	inviteCodeLength   = 6
	inviteCodeAttempts = 5
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxFridgeNameLen   = 80
	defaultCacheTTL    = time.Minute
)

type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	notifier change.Notifier
	now      func() time.Time
	newCode  func() (string, error)
}

type Option func(*Service)

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithNotifier(notifier change.Notifier) Option {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		cache:    noopCache{},
		cacheTTL: defaultCacheTTL,
		notifier: change.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  func() (string, error) { return generateCode(inviteCodeLength) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFridge creates the fridge, its invite code index entry and the owner's
// membership mirrors in one unit, then points the owner's current fridge at it.
func (s *Service) CreateFridge(ctx context.Context, ownerID, name string) (*Fridge, error) {
	name, err := normalizeName(name, DefaultFridgeName)
	if err != nil {
		return nil, err
	}

	var result Fridge
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}

		err = s.repo.Transaction(ctx, func(tx Repository) error {
			taken, err := tx.IsCodeTaken(ctx, code)
			if err != nil {
				return err
			}
			if taken {
				return ErrInviteCodeTaken
			}

			now := s.now()
			fridge := Fridge{
				ID:         uuid.NewString(),
				Name:       name,
				OwnerID:    ownerID,
				InviteCode: code,
			}
			if err := tx.CreateFridge(ctx, &fridge); err != nil {
				return err
			}
			if err := tx.CreateInviteCode(ctx, &InviteCode{Code: code, FridgeID: fridge.ID}); err != nil {
				return err
			}
			if err := addMirrors(ctx, tx, ownerID, fridge.ID, RoleOwner, now); err != nil {
				return err
			}
			if err := tx.SetCurrentFridge(ctx, ownerID, &fridge.ID); err != nil {
				return err
			}

			result = fridge
			return nil
		})
		if errors.Is(err, ErrInviteCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.cache.DeleteMemberships(ctx, ownerID)
		s.notifier.Notify(ctx,
			change.ForUser(ownerID, change.CollectionMemberships),
			change.ForUser(ownerID, change.CollectionProfile),
		)
		s.notifier.Notify(ctx, change.ForFridge(result.ID, change.CollectionFridge, change.CollectionMembers)...)
		return &result, nil
	}

	return nil, ErrCodeGenerationExhausted
}

// Join resolves an invite code and adds the caller as a member. The cached
// membership metadata is a fast pre-check; the authoritative check runs inside
// the transaction and the composite keys reject any duplicate that slips past.
func (s *Service) Join(ctx context.Context, userID, rawCode string) (*Fridge, error) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return nil, ErrInviteCodeRequired
	}

	fridgeID, err := s.repo.ResolveInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}

	meta, err := s.MembershipMeta(ctx, userID)
	if err != nil {
		return nil, err
	}
	if meta.Has(fridgeID) {
		return nil, ErrAlreadyMember
	}

	var result Fridge
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		fridge, err := tx.GetFridge(ctx, fridgeID)
		if err != nil {
			return err
		}

		if _, err := tx.GetMembership(ctx, userID, fridgeID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, ErrMembershipNotFound) {
			return err
		}

		if err := addMirrors(ctx, tx, userID, fridgeID, RoleMember, s.now()); err != nil {
			return err
		}
		if err := tx.SetCurrentFridgeIfEmpty(ctx, userID, fridgeID); err != nil {
			return err
		}

		result = *fridge
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.DeleteMemberships(ctx, userID)
	s.notifier.Notify(ctx,
		change.ForUser(userID, change.CollectionMemberships),
		change.ForUser(userID, change.CollectionProfile),
	)
	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionMembers)...)
	return &result, nil
}

type leaveOutcome int

const (
	leftAsMember leaveOutcome = iota
	leftDangling
	leftTornDown
)

func (s *Service) Leave(ctx context.Context, userID, fridgeID string) error {
	fridgeID = strings.TrimSpace(fridgeID)
	if fridgeID == "" {
		return ErrFridgeIDRequired
	}

	var outcome leaveOutcome
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		_, membershipErr := tx.GetMembership(ctx, userID, fridgeID)
		if membershipErr != nil && !errors.Is(membershipErr, ErrMembershipNotFound) {
			return membershipErr
		}
		hasMembership := membershipErr == nil

		fridge, err := tx.GetFridge(ctx, fridgeID)
		if err != nil && !errors.Is(err, ErrFridgeNotFound) {
			return err
		}

		if fridge == nil {
			outcome = leftDangling
			if err := tx.DeleteMembership(ctx, userID, fridgeID); err != nil {
				return err
			}
			if err := tx.DeleteMember(ctx, fridgeID, userID); err != nil {
				return err
			}
			return tx.ClearCurrentFridgeIf(ctx, userID, fridgeID)
		}
		if !hasMembership {
			return ErrMembershipNotFound
		}
		if _, err := tx.GetMember(ctx, fridgeID, userID); err != nil {
			if errors.Is(err, ErrMemberNotFound) {
				return ErrRosterMirrorMissing
			}
			return err
		}

		if fridge.OwnerID != userID {
			outcome = leftAsMember
			if err := tx.DeleteMember(ctx, fridgeID, userID); err != nil {
				return err
			}
			if err := tx.DeleteMembership(ctx, userID, fridgeID); err != nil {
				return err
			}
			return tx.ClearCurrentFridgeIf(ctx, userID, fridgeID)
		}

		count, err := tx.CountMembers(ctx, fridgeID)
		if err != nil {
			return err
		}
		if count > 1 {
			return ErrOwnerMustTransfer
		}

		outcome = leftTornDown
		if err := teardown(ctx, tx, fridgeID); err != nil {
			return err
		}
		return tx.SetCurrentFridge(ctx, userID, nil)
	})
	if err != nil {
		return err
	}

	s.cache.DeleteMemberships(ctx, userID)
	s.notifier.Notify(ctx,
		change.ForUser(userID, change.CollectionMemberships),
		change.ForUser(userID, change.CollectionProfile),
	)
	switch outcome {
	case leftAsMember:
		s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionMembers)...)
	case leftTornDown:
		s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionFridge, change.CollectionMembers, change.CollectionStock, change.CollectionShopping)...)
	}
	return nil
}

// SetCurrentFridge points the user's profile at a fridge they belong to. A nil
// or blank id clears the pointer.
func (s *Service) SetCurrentFridge(ctx context.Context, userID string, fridgeID *string) error {
	if fridgeID == nil || strings.TrimSpace(*fridgeID) == "" {
		if err := s.repo.SetCurrentFridge(ctx, userID, nil); err != nil {
			return err
		}
		s.notifier.Notify(ctx, change.ForUser(userID, change.CollectionProfile))
		return nil
	}

	id := strings.TrimSpace(*fridgeID)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetMembership(ctx, userID, id); err != nil {
			return err
		}
		return tx.SetCurrentFridge(ctx, userID, &id)
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, change.ForUser(userID, change.CollectionProfile))
	return nil
}

func (s *Service) CurrentFridge(ctx context.Context, userID string) (*string, error) {
	return s.repo.GetCurrentFridge(ctx, userID)
}

// ListFridges returns the caller's fridges ordered by name. Memberships whose
// fridge no longer exists are skipped.
func (s *Service) ListFridges(ctx context.Context, userID string) ([]UserFridge, error) {
	memberships, err := s.repo.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.SetMemberships(ctx, userID, metaFrom(memberships), s.cacheTTL)
	if len(memberships) == 0 {
		return []UserFridge{}, nil
	}

	ids := make([]string, 0, len(memberships))
	for _, membership := range memberships {
		ids = append(ids, membership.FridgeID)
	}
	fridges, err := s.repo.ListFridgesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Fridge, len(fridges))
	for _, fridge := range fridges {
		byID[fridge.ID] = fridge
	}

	result := make([]UserFridge, 0, len(memberships))
	for _, membership := range memberships {
		fridge, ok := byID[membership.FridgeID]
		if !ok {
			continue
		}
		result = append(result, UserFridge{Fridge: fridge, Role: membership.Role, JoinedAt: membership.JoinedAt})
	}

	sort.SliceStable(result, func(i, j int) bool {
		left, right := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if left != right {
			return left < right
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Service) GetFridge(ctx context.Context, userID, fridgeID string) (*Fridge, error) {
	if err := s.requireMember(ctx, userID, fridgeID); err != nil {
		return nil, err
	}
	return s.repo.GetFridge(ctx, fridgeID)
}

func (s *Service) RenameFridge(ctx context.Context, userID, fridgeID, name string) (*Fridge, error) {
	name, err := normalizeName(name, "")
	if err != nil {
		return nil, err
	}

	var result Fridge
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		fridge, err := tx.GetFridge(ctx, fridgeID)
		if err != nil {
			return err
		}
		if fridge.OwnerID != userID {
			return ErrNotOwner
		}
		if err := tx.UpdateFridgeName(ctx, fridgeID, name); err != nil {
			return err
		}
		fridge.Name = name
		result = *fridge
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionFridge)...)
	return &result, nil
}

// TransferOwnership swaps roles between the current owner and an existing
// member on both mirrors.
func (s *Service) TransferOwnership(ctx context.Context, ownerID, fridgeID, newOwnerID string) (*Fridge, error) {
	newOwnerID = strings.TrimSpace(newOwnerID)
	if newOwnerID == "" {
		return nil, ErrNewOwnerNotMember
	}
	if newOwnerID == ownerID {
		return nil, ErrSameOwner
	}

	var result Fridge
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		fridge, err := tx.GetFridge(ctx, fridgeID)
		if err != nil {
			return err
		}
		if fridge.OwnerID != ownerID {
			return ErrNotOwner
		}
		if _, err := tx.GetMembership(ctx, newOwnerID, fridgeID); err != nil {
			if errors.Is(err, ErrMembershipNotFound) {
				return ErrNewOwnerNotMember
			}
			return err
		}

		if err := tx.UpdateFridgeOwner(ctx, fridgeID, newOwnerID); err != nil {
			return err
		}
		if err := setRole(ctx, tx, newOwnerID, fridgeID, RoleOwner); err != nil {
			return err
		}
		if err := setRole(ctx, tx, ownerID, fridgeID, RoleMember); err != nil {
			return err
		}

		fridge.OwnerID = newOwnerID
		result = *fridge
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.DeleteMemberships(ctx, ownerID, newOwnerID)
	s.notifier.Notify(ctx,
		change.ForUser(ownerID, change.CollectionMemberships),
		change.ForUser(newOwnerID, change.CollectionMemberships),
	)
	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionFridge, change.CollectionMembers)...)
	return &result, nil
}

// DeleteFridge removes the fridge with its stock, shopping entries, invite
// code and every member's mirrors. History is kept.
func (s *Service) DeleteFridge(ctx context.Context, ownerID, fridgeID string) error {
	var affected []string
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		fridge, err := tx.GetFridge(ctx, fridgeID)
		if err != nil {
			return err
		}
		if fridge.OwnerID != ownerID {
			return ErrNotOwner
		}

		affected, err = memberUserIDs(ctx, tx, fridgeID)
		if err != nil {
			return err
		}
		return teardown(ctx, tx, fridgeID)
	})
	if err != nil {
		return err
	}

	s.cache.DeleteMemberships(ctx, affected...)
	for _, userID := range affected {
		s.notifier.Notify(ctx,
			change.ForUser(userID, change.CollectionMemberships),
			change.ForUser(userID, change.CollectionProfile),
		)
	}
	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionFridge, change.CollectionMembers, change.CollectionStock, change.CollectionShopping)...)
	return nil
}

func (s *Service) ListMembers(ctx context.Context, userID, fridgeID string) ([]MemberProfile, error) {
	if err := s.requireMember(ctx, userID, fridgeID); err != nil {
		return nil, err
	}
	return s.repo.ListMembersWithProfiles(ctx, fridgeID)
}

// IsMember reads the user-side ledger directly, bypassing the cache.
func (s *Service) IsMember(ctx context.Context, userID, fridgeID string) (bool, error) {
	if strings.TrimSpace(fridgeID) == "" {
		return false, nil
	}
	_, err := s.repo.GetMembership(ctx, userID, fridgeID)
	if errors.Is(err, ErrMembershipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MembershipMeta returns the cached fridge->role map of the user, loading it
// from the ledger on a miss.
func (s *Service) MembershipMeta(ctx context.Context, userID string) (MembershipMeta, error) {
	if meta, ok := s.cache.GetMemberships(ctx, userID); ok {
		return meta, nil
	}

	memberships, err := s.repo.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	meta := metaFrom(memberships)
	s.cache.SetMemberships(ctx, userID, meta, s.cacheTTL)
	return meta, nil
}

// Audit reports every asymmetry between the user's ledger rows and the
// fridge rosters.
func (s *Service) Audit(ctx context.Context, userID string) ([]Anomaly, error) {
	memberships, err := s.repo.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	rosterRows, err := s.repo.ListMembersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	inRoster := make(map[string]struct{}, len(rosterRows))
	for _, row := range rosterRows {
		inRoster[row.FridgeID] = struct{}{}
	}
	inLedger := make(map[string]struct{}, len(memberships))

	anomalies := make([]Anomaly, 0)
	for _, membership := range memberships {
		inLedger[membership.FridgeID] = struct{}{}

		if _, err := s.repo.GetFridge(ctx, membership.FridgeID); err != nil {
			if !errors.Is(err, ErrFridgeNotFound) {
				return nil, err
			}
			anomalies = append(anomalies, Anomaly{Kind: AnomalyDanglingMembership, UserID: userID, FridgeID: membership.FridgeID})
			continue
		}
		if _, ok := inRoster[membership.FridgeID]; !ok {
			anomalies = append(anomalies, Anomaly{Kind: AnomalyMissingRosterMirror, UserID: userID, FridgeID: membership.FridgeID})
		}
	}
	for _, row := range rosterRows {
		if _, ok := inLedger[row.FridgeID]; !ok {
			anomalies = append(anomalies, Anomaly{Kind: AnomalyMissingUserMirror, UserID: userID, FridgeID: row.FridgeID})
		}
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if anomalies[i].FridgeID != anomalies[j].FridgeID {
			return anomalies[i].FridgeID < anomalies[j].FridgeID
		}
		return anomalies[i].Kind < anomalies[j].Kind
	})
	return anomalies, nil
}

func (s *Service) requireMember(ctx context.Context, userID, fridgeID string) error {
	if strings.TrimSpace(fridgeID) == "" {
		return ErrFridgeIDRequired
	}
	ok, err := s.IsMember(ctx, userID, fridgeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFridgeMember
	}
	return nil
}

func addMirrors(ctx context.Context, tx Repository, userID, fridgeID string, role Role, joinedAt time.Time) error {
	if err := tx.AddMember(ctx, &FridgeMember{FridgeID: fridgeID, UserID: userID, Role: role, JoinedAt: joinedAt}); err != nil {
		return err
	}
	return tx.AddMembership(ctx, &Membership{UserID: userID, FridgeID: fridgeID, Role: role, JoinedAt: joinedAt})
}

func setRole(ctx context.Context, tx Repository, userID, fridgeID string, role Role) error {
	if err := tx.UpdateMemberRole(ctx, fridgeID, userID, role); err != nil {
		return err
	}
	return tx.UpdateMembershipRole(ctx, userID, fridgeID, role)
}

func teardown(ctx context.Context, tx Repository, fridgeID string) error {
	steps := []func(context.Context, string) error{
		tx.DeleteStockByFridge,
		tx.DeleteShoppingByFridge,
		tx.DeleteInviteCodes,
		tx.DeleteMembersByFridge,
		tx.DeleteMembershipsByFridge,
		tx.ClearCurrentFridgeForFridge,
		tx.DeleteFridge,
	}
	for _, step := range steps {
		if err := step(ctx, fridgeID); err != nil {
			return err
		}
	}
	return nil
}

func memberUserIDs(ctx context.Context, tx Repository, fridgeID string) ([]string, error) {
	members, err := tx.ListMembers(ctx, fridgeID)
	if err != nil {
		return nil, err
	}
	memberships, err := tx.ListMembershipsByFridge(ctx, fridgeID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(members)+len(memberships))
	ids := make([]string, 0, len(members)+len(memberships))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, member := range members {
		add(member.UserID)
	}
	for _, membership := range memberships {
		add(membership.UserID)
	}
	return ids, nil
}

func metaFrom(memberships []Membership) MembershipMeta {
	meta := make(MembershipMeta, len(memberships))
	for _, membership := range memberships {
		meta[membership.FridgeID] = membership.Role
	}
	return meta
}

func normalizeName(name, fallback string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if name == "" || utf8.RuneCountInString(name) > maxFridgeNameLen {
		return "", ErrFridgeNameInvalid
	}
	return name, nil
}

func generateCode(length int) (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(inviteCodeAlphabet[n.Int64()])
	}

	return builder.String(), nil
}

// DisplayName falls back to "Fridge XXXX" built from the id tail when the
// stored name is blank.
func DisplayName(fridgeID, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	tail := fridgeID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "Fridge " + strings.ToUpper(tail)
}
