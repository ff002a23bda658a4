package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Role is a named bundle of permission names assignable to a membership.
// System roles are seeded and cannot be deleted.
type Role struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string         `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description  string         `json:"description" gorm:"type:text"`
	Permissions  pq.StringArray `json:"permissions" gorm:"type:text[]"`
	IsSystemRole bool           `json:"is_system_role" gorm:"default:false;not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// HasPermission reports whether the role grants the named permission,
// either directly or via the wildcard super-permission.
func (r *Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p == name || p == PermissionAdminFull {
			return true
		}
	}
	return false
}
