package finance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"byggmart/internal/models"
)

// The hash signature is a tamper-evidence artifact for downstream consumers.
// Its canonical form is pinned here: the JSON serialization of
// SignaturePayload with fields in declaration order, dates as YYYY-MM-DD,
// line decimals in their shortest exact form, and totals fixed to two
// decimal places. Any verifier must reproduce this form exactly.

// SignaturePayload is the canonical subset of a finalized document covered
// by the hash signature.
type SignaturePayload struct {
	ProjectID             string           `json:"project_id"`
	PeriodStart           string           `json:"period_start"`
	PeriodEnd             string           `json:"period_end"`
	InvoiceSeries         string           `json:"invoice_series"`
	InvoiceNumber         string           `json:"invoice_number"`
	InvoiceDate           string           `json:"invoice_date"`
	DueDate               string           `json:"due_date"`
	Currency              string           `json:"currency"`
	Lines                 []SignatureLine  `json:"lines"`
	Totals                SignatureTotals  `json:"totals"`
	ReverseChargeBuilding bool             `json:"reverse_charge_building"`
	RotRutFlag            bool             `json:"rot_rut_flag"`
}

// SignatureLine is the canonical form of one line.
type SignatureLine struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	ArticleCode string `json:"article_code"`
	Account     string `json:"account"`
	Unit        string `json:"unit"`
	VATCode     string `json:"vat_code"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Discount    string `json:"discount"`
	VATRate     string `json:"vat_rate"`
}

// SignatureTotals is the canonical form of the aggregate, fixed to the
// currency precision.
type SignatureTotals struct {
	Net   string `json:"net"`
	VAT   string `json:"vat"`
	Gross string `json:"gross"`
}

// NewSignaturePayload builds the canonical payload from a document whose
// invoice metadata and totals have already been resolved.
func NewSignaturePayload(doc *models.InvoiceBasis) SignaturePayload {
	payload := SignaturePayload{
		ProjectID:             doc.ProjectID.String(),
		PeriodStart:           doc.PeriodStart.String(),
		PeriodEnd:             doc.PeriodEnd.String(),
		Currency:              doc.Currency,
		ReverseChargeBuilding: doc.ReverseChargeBuilding,
		RotRutFlag:            doc.RotRutFlag,
	}
	if doc.InvoiceSeries != nil {
		payload.InvoiceSeries = *doc.InvoiceSeries
	}
	if doc.InvoiceNumber != nil {
		payload.InvoiceNumber = *doc.InvoiceNumber
	}
	if doc.InvoiceDate != nil {
		payload.InvoiceDate = doc.InvoiceDate.String()
	}
	if doc.DueDate != nil {
		payload.DueDate = doc.DueDate.String()
	}

	payload.Lines = make([]SignatureLine, 0, len(doc.Lines))
	for i := range doc.Lines {
		line := &doc.Lines[i]
		payload.Lines = append(payload.Lines, SignatureLine{
			ID:          line.ID.String(),
			Type:        line.Type,
			Description: deref(line.Description),
			ArticleCode: deref(line.ArticleCode),
			Account:     deref(line.Account),
			Unit:        deref(line.Unit),
			VATCode:     deref(line.VATCode),
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.String(),
			Discount:    line.Discount.String(),
			VATRate:     line.VATRate.String(),
		})
	}

	if doc.Totals != nil {
		payload.Totals = SignatureTotals{
			Net:   doc.Totals.Net.StringFixed(CurrencyPlaces),
			VAT:   doc.Totals.VAT.StringFixed(CurrencyPlaces),
			Gross: doc.Totals.Gross.StringFixed(CurrencyPlaces),
		}
	}

	return payload
}

// Sign serializes the canonical payload and returns its SHA-256 hex digest.
func Sign(payload SignaturePayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal signature payload: %w", err)
	}
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:]), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
