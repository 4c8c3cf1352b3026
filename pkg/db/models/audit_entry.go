package models

import (
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/google/uuid"
)

// AuditEntry is a best-effort trail record. Failures writing these must
// never block or roll back the ledger operation they describe.
type AuditEntry struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID     uuid.UUID           `gorm:"column:actor_id;type:uuid;not null"`
	Action      string              `gorm:"column:action;not null"`
	Description string              `gorm:"column:description;not null"`
	Module      string              `gorm:"column:module;not null"`
	Severity    enums.AuditSeverity `gorm:"column:severity;type:audit_severity;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
