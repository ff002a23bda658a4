package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership statuses. The lifecycle is pending -> active -> suspended,
// with suspended -> active allowed again via un-suspend. A membership never
// moves straight from pending to suspended.
const (
	MembershipStatusPending   = "pending"
	MembershipStatusActive    = "active"
	MembershipStatusSuspended = "suspended"
)

// Membership binds one user to one role within one organization. The
// (user, organization) pair is unique; re-inviting an already invited user
// updates the existing row.
type Membership struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_org"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_org"`
	RoleID         uuid.UUID  `json:"role_id" gorm:"type:uuid;not null"`
	Status         string     `json:"status" gorm:"size:20;not null;default:'pending'"`
	InvitedBy      *uuid.UUID `json:"invited_by,omitempty" gorm:"type:uuid"`
	InvitedAt      *time.Time `json:"invited_at,omitempty"`
	JoinedAt       time.Time  `json:"joined_at" gorm:"autoCreateTime"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	User         *User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Role         *Role         `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the historical table name.
func (Membership) TableName() string {
	return "user_organizations"
}
