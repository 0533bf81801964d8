package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address is a postal address attached to an invoice basis header.
type Address struct {
	Name       string `json:"name,omitempty"`
	CareOf     string `json:"care_of,omitempty"`
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CustomerSnapshot is a deep, point-in-time copy of the customer record,
// written once at lock time so the locked document is decoupled from any
// later edits to the live customer.
type CustomerSnapshot struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	OrgNo      string    `json:"org_no,omitempty"`
	VATNo      string    `json:"vat_no,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    Address   `json:"address"`
	SnapshotAt time.Time `json:"snapshot_at"`
}

// InvoiceBasis is the draft financial document that accumulates billable
// lines for one (organization, project, billing period). While Locked is
// false every header and line field is mutable subject to role checks; once
// locked the document is terminal and no code path mutates it again.
type InvoiceBasis struct {
	ID          uuid.UUID `json:"id"`
	OrgID       uuid.UUID `json:"org_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	PeriodStart Date      `json:"period_start"`
	PeriodEnd   Date      `json:"period_end"`

	InvoiceSeries         *string          `json:"invoice_series"`
	InvoiceNumber         *string          `json:"invoice_number"`
	InvoiceDate           *Date            `json:"invoice_date"`
	DueDate               *Date            `json:"due_date"`
	PaymentTermsDays      *int             `json:"payment_terms_days"`
	OCRRef                *string          `json:"ocr_ref"`
	OurRef                *string          `json:"our_ref"`
	YourRef               *string          `json:"your_ref"`
	Currency              string           `json:"currency"`
	FxRate                *decimal.Decimal `json:"fx_rate"`
	ReverseChargeBuilding bool             `json:"reverse_charge_building"`
	RotRutFlag            bool             `json:"rot_rut_flag"`
	CostCenter            *string          `json:"cost_center"`
	ResultUnit            *string          `json:"result_unit"`
	InvoiceAddress        *Address         `json:"invoice_address"`
	DeliveryAddress       *Address         `json:"delivery_address"`
	WorksiteAddress       *Address         `json:"worksite_address"`
	WorksiteID            *string          `json:"worksite_id"`

	CustomerID       *uuid.UUID        `json:"customer_id"`
	CustomerSnapshot *CustomerSnapshot `json:"customer_snapshot"`

	Lines  []InvoiceBasisLine `json:"lines"`
	Totals *Totals            `json:"totals"`

	Locked        bool       `json:"locked"`
	LockedBy      *uuid.UUID `json:"locked_by"`
	LockedAt      *time.Time `json:"locked_at"`
	HashSignature *string    `json:"hash_signature"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// LineByID returns the index of the line with the given id, or -1.
func (b *InvoiceBasis) LineByID(id uuid.UUID) int {
	for i := range b.Lines {
		if b.Lines[i].ID == id {
			return i
		}
	}
	return -1
}
