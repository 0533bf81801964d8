package services

import (
	"byggmart/internal/common"
)

// Roles carried in the identity token.
const (
	RoleAdmin   = "admin"
	RoleForeman = "foreman"
)

// Action names the operations the authorization table covers.
type Action string

const (
	ActionViewInvoiceBasis   Action = "invoice_basis.view"
	ActionEditInvoiceBasis   Action = "invoice_basis.edit"
	ActionLockInvoiceBasis   Action = "invoice_basis.lock"
	ActionExportInvoiceBasis Action = "invoice_basis.export"
	ActionViewAuditLog       Action = "audit_log.view"
)

// rolePermissions is the static role to action table. Locking and audit
// reads are administrative; everything else is shared with foremen.
var rolePermissions = map[string]map[Action]bool{
	RoleAdmin: {
		ActionViewInvoiceBasis:   true,
		ActionEditInvoiceBasis:   true,
		ActionLockInvoiceBasis:   true,
		ActionExportInvoiceBasis: true,
		ActionViewAuditLog:       true,
	},
	RoleForeman: {
		ActionViewInvoiceBasis:   true,
		ActionEditInvoiceBasis:   true,
		ActionExportInvoiceBasis: true,
	},
}

// Authorize is the single authorization decision point. Unknown roles are
// forbidden rather than errored separately so the caller sees one taxonomy.
func Authorize(role string, action Action) error {
	if rolePermissions[role][action] {
		return nil
	}
	return common.Errorf(common.KindForbidden, "role %q may not perform %s", role, action)
}
