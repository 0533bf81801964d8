package models

import "github.com/shopspring/decimal"

// VATBucket aggregates net and VAT amounts for one VAT rate.
type VATBucket struct {
	Rate decimal.Decimal `json:"rate"`
	Net  decimal.Decimal `json:"net"`
	VAT  decimal.Decimal `json:"vat"`
}

// Totals is the derived aggregate of an invoice basis. It is never edited by
// hand; it is recomputed in full from the line set on every line mutation and
// once more at lock time. VATBuckets are sorted by ascending rate.
type Totals struct {
	Currency   string          `json:"currency"`
	Net        decimal.Decimal `json:"net"`
	VAT        decimal.Decimal `json:"vat"`
	Gross      decimal.Decimal `json:"gross"`
	VATBuckets []VATBucket     `json:"vat_buckets,omitempty"`
}
