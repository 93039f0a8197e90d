package fridge

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

const DefaultFridgeName = "My Fridge"

type Fridge struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"not null"`
	OwnerID    string    `gorm:"not null;index"`
	InviteCode string    `gorm:"size:6;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// InviteCode is the secondary index from a code to its fridge.
type InviteCode struct {
	Code      string    `gorm:"size:6;primaryKey"`
	FridgeID  string    `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// FridgeMember is the fridge-side roster row.
type FridgeMember struct {
	FridgeID string    `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"primaryKey;index"`
	Role     Role      `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"not null"`
}

// Membership is the user-side mirror of FridgeMember.
type Membership struct {
	UserID   string    `gorm:"primaryKey"`
	FridgeID string    `gorm:"type:uuid;primaryKey;index"`
	Role     Role      `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"not null"`
}

func (Membership) TableName() string {
	return "user_memberships"
}

// MembershipMeta maps fridge id to the user's role in it.
type MembershipMeta map[string]Role

func (m MembershipMeta) Has(fridgeID string) bool {
	_, ok := m[fridgeID]
	return ok
}

func (m MembershipMeta) FridgeIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

type UserFridge struct {
	Fridge
	Role     Role
	JoinedAt time.Time
}

type MemberProfile struct {
	UserID      string
	Role        Role
	JoinedAt    time.Time
	DisplayName *string
	Email       *string
}

type AnomalyKind string

const (
	AnomalyMissingRosterMirror AnomalyKind = "missing_roster_mirror"
	AnomalyMissingUserMirror   AnomalyKind = "missing_user_mirror"
	AnomalyDanglingMembership  AnomalyKind = "dangling_membership"
)

type Anomaly struct {
	Kind     AnomalyKind
	UserID   string
	FridgeID string
}
