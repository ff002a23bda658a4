package models

import (
	"time"

	"github.com/google/uuid"
)

// Permission is a named capability governing one resource/action pair.
// Reference data: seeded at setup and rarely mutated afterwards.
type Permission struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Resource    string    `json:"resource" gorm:"size:100;not null"`
	Action      string    `json:"action" gorm:"size:100;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PermissionAdminFull is the wildcard super-permission. A role carrying it
// passes every permission check regardless of the named permission.
const PermissionAdminFull = "admin.full"
