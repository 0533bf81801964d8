package models

import (
	"time"

	"github.com/google/uuid"
)

// JSONB is a generic JSON object stored in a jsonb column.
type JSONB map[string]interface{}

// AuditLog is an append-only record of one successful mutation. It is never
// read back by the mutation path itself.
type AuditLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	OrgID      uuid.UUID  `json:"org_id" db:"org_id"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   string     `json:"entity_id" db:"entity_id"`
	Action     string     `json:"action" db:"action"`
	OldData    JSONB      `json:"old_data" db:"old_data"`
	NewData    JSONB      `json:"new_data" db:"new_data"`
	ChangedBy  *uuid.UUID `json:"changed_by" db:"changed_by"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Audit actions emitted by this subsystem.
const (
	ActionHeaderUpdate = "invoice_basis.header.update"
	ActionLineUpdate   = "invoice_basis.line.update"
	ActionLock         = "invoice_basis.lock"
)

// EntityInvoiceBasis is the entity_type for all invoice basis audit entries.
const EntityInvoiceBasis = "invoice_basis"
