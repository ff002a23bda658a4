package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant boundary. Memberships and audit logs are scoped
// to it and removed with it through foreign key cascades.
type Organization struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string    `json:"name" gorm:"size:200;not null"`
	Slug             string    `json:"slug" gorm:"size:100;uniqueIndex;not null"`
	Description      string    `json:"description" gorm:"type:text"`
	LogoURL          string    `json:"logo_url"`
	Settings         JSON      `json:"settings" gorm:"type:jsonb;default:'{}'"`
	SubscriptionTier string    `json:"subscription_tier" gorm:"size:50;default:'free'"`
	MaxUsers         int       `json:"max_users" gorm:"default:5"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
