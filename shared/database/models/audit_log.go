package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit severities. Severity is a first-class column; most entries are
// informational, admin-visible warnings and failures are tagged explicitly.
const (
	AuditSeverityInfo    = "info"
	AuditSeverityWarning = "warning"
	AuditSeverityError   = "error"
)

// AuditLog is an append-only record of one mutating admin action. Entries
// are never updated or deleted by normal operation; deleting an organization
// removes its scoped entries in the same store transaction. The organization
// id is deliberately not a foreign key: the entry recording the deletion
// itself must outlive the organization it references.
type AuditLog struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index"`
	Action         string    `json:"action" gorm:"size:100;not null;index"`
	Resource       string    `json:"resource" gorm:"size:100;not null"`
	ResourceID     string    `json:"resource_id" gorm:"size:100"`
	Severity       string    `json:"severity" gorm:"size:20;not null;default:'info';index"`
	Details        JSON      `json:"details" gorm:"type:jsonb;default:'{}'"`
	IPAddress      string    `json:"ip_address,omitempty" gorm:"type:varchar(45)"`
	UserAgent      string    `json:"user_agent,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName returns the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
