package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line types. Diary lines are produced by the site-diary module and are
// read-only through the line editor.
const (
	LineTypeTime        = "time"
	LineTypeMaterial    = "material"
	LineTypeExpense     = "expense"
	LineTypeChangeOrder = "change_order"
	LineTypeDiary       = "diary"
)

// InvoiceBasisLine is one billable row of an invoice basis. Amounts are not
// stored per line; totals are always recomputed from quantity, unit price,
// discount and VAT rate.
type InvoiceBasisLine struct {
	ID          uuid.UUID         `json:"id"`
	Type        string            `json:"type"`
	Description *string           `json:"description"`
	ArticleCode *string           `json:"article_code"`
	Account     *string           `json:"account"`
	Unit        *string           `json:"unit"`
	VATCode     *string           `json:"vat_code"`
	Quantity    decimal.Decimal   `json:"quantity"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
	Discount    decimal.Decimal   `json:"discount"`
	VATRate     decimal.Decimal   `json:"vat_rate"`
	Dimensions  map[string]string `json:"dimensions,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
}

// ReadOnly reports whether the line may be edited through the line editor.
func (l *InvoiceBasisLine) ReadOnly() bool {
	return l.Type == LineTypeDiary
}
