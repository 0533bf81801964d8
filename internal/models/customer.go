package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a read-only view of the customer directory, consumed only as
// the source for lock-time snapshots.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Name      string    `json:"name"`
	OrgNo     *string   `json:"org_no"`
	VATNo     *string   `json:"vat_no"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot produces the point-in-time copy embedded in a locked document.
func (c *Customer) Snapshot(at time.Time) *CustomerSnapshot {
	snap := &CustomerSnapshot{
		CustomerID: c.ID,
		Name:       c.Name,
		Address:    c.Address,
		SnapshotAt: at,
	}
	if c.OrgNo != nil {
		snap.OrgNo = *c.OrgNo
	}
	if c.VATNo != nil {
		snap.VATNo = *c.VATNo
	}
	if c.Email != nil {
		snap.Email = *c.Email
	}
	if c.Phone != nil {
		snap.Phone = *c.Phone
	}
	return snap
}
