package services

import (
	"context"
	"strings"
	"time"

	"byggmart/internal/common"
	"byggmart/internal/finance"
	"byggmart/internal/models"

	"github.com/google/uuid"
)

const (
	defaultInvoiceSeries    = "F"
	defaultPaymentTermsDays = 30
	defaultCurrency         = "SEK"
	invoiceNumberTimeFormat = "20060102150405"
)

// LockRequest carries the optional invoice metadata supplied at lock time.
// Anything omitted falls back to the stored header value and then to the
// organization defaults.
type LockRequest struct {
	InvoiceSeries         *string      `json:"invoice_series"`
	InvoiceNumber         *string      `json:"invoice_number"`
	InvoiceDate           *models.Date `json:"invoice_date"`
	DueDate               *models.Date `json:"due_date"`
	PaymentTermsDays      *int         `json:"payment_terms_days"`
	OCRRef                *string      `json:"ocr_ref"`
	Currency              *string      `json:"currency"`
	ReverseChargeBuilding *bool        `json:"reverse_charge_building"`
	RotRutFlag            *bool        `json:"rot_rut_flag"`
}

// Lock finalizes a draft: invoice metadata is resolved, the customer is
// snapshotted, the OCR reference and hash signature are generated, and the
// document flips to locked in one conditional update. The transition is one
// way; there is no unlock.
func (s *invoiceBasisService) Lock(ctx context.Context, principal common.Principal, id uuid.UUID, req *LockRequest) (*models.InvoiceBasis, error) {
	if err := Authorize(principal.Role, ActionLockInvoiceBasis); err != nil {
		return nil, err
	}
	if req == nil {
		req = &LockRequest{}
	}

	doc, err := s.loadDraft(ctx, principal.OrgID, id)
	if err != nil {
		return nil, err
	}

	oldData := models.JSONB{"locked": false}
	if doc.InvoiceSeries != nil {
		oldData["invoice_series"] = *doc.InvoiceSeries
	}
	if doc.InvoiceNumber != nil {
		oldData["invoice_number"] = *doc.InvoiceNumber
	}

	project, err := s.projects.GetByID(ctx, principal.OrgID, doc.ProjectID)
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return nil, common.WrapInternal("invoice basis references a missing project", err)
		}
		return nil, err
	}

	now := time.Now()
	if err := resolveInvoiceMetadata(doc, req, now); err != nil {
		return nil, err
	}

	if err := s.snapshotCustomer(ctx, doc, project, now); err != nil {
		return nil, err
	}

	doc.Totals = finance.Calculate(doc.Lines, doc.Currency)

	// Reference resolution follows the metadata precedence: the request's
	// value, then whatever the header already stores, then generation.
	if ref := firstString("", req.OCRRef, doc.OCRRef); ref != "" {
		if !finance.ValidReference(ref) {
			return nil, common.Errorf(common.KindBadRequest, "ocr_ref %q fails its mod-10 check digit", ref)
		}
		doc.OCRRef = &ref
	} else {
		generated, err := finance.Reference(finance.Seed(*doc.InvoiceNumber, project.ProjectNumber))
		if err != nil {
			return nil, common.WrapInternal("failed to generate ocr reference", err)
		}
		doc.OCRRef = &generated
	}

	digest, err := finance.Sign(finance.NewSignaturePayload(doc))
	if err != nil {
		return nil, common.WrapInternal("failed to sign invoice basis", err)
	}
	doc.HashSignature = &digest

	userID := principal.UserID
	doc.Locked = true
	doc.LockedBy = &userID
	doc.LockedAt = &now

	affected, err := s.repo.Lock(ctx, doc)
	if err != nil {
		return nil, common.WrapInternal("failed to lock invoice basis", err)
	}
	if affected == 0 {
		return nil, common.NewError(common.KindConflict, "invoice basis is already locked")
	}

	s.cacheInvalidate(ctx, principal.OrgID, id)
	s.audit(principal, id, models.ActionLock,
		oldData,
		models.JSONB{
			"locked":         true,
			"invoice_series": *doc.InvoiceSeries,
			"invoice_number": *doc.InvoiceNumber,
			"ocr_ref":        *doc.OCRRef,
			"hash_signature": digest,
		})
	return doc, nil
}

// resolveInvoiceMetadata fills every invoice field a locked document must
// carry. Precedence is request value, then stored header value, then default.
func resolveInvoiceMetadata(doc *models.InvoiceBasis, req *LockRequest, now time.Time) error {
	series := firstString(defaultInvoiceSeries, req.InvoiceSeries, doc.InvoiceSeries)
	doc.InvoiceSeries = &series

	if req.InvoiceDate != nil {
		d := *req.InvoiceDate
		doc.InvoiceDate = &d
	} else if doc.InvoiceDate == nil {
		d := models.DateOf(now)
		doc.InvoiceDate = &d
	}

	number := firstString(series+now.Format(invoiceNumberTimeFormat), req.InvoiceNumber, doc.InvoiceNumber)
	doc.InvoiceNumber = &number

	terms := defaultPaymentTermsDays
	if req.PaymentTermsDays != nil {
		terms = *req.PaymentTermsDays
	} else if doc.PaymentTermsDays != nil {
		terms = *doc.PaymentTermsDays
	}
	if terms < 0 || terms > 365 {
		return common.Errorf(common.KindBadRequest, "payment_terms_days %d out of range 0..365", terms)
	}
	doc.PaymentTermsDays = &terms

	if req.DueDate != nil {
		d := *req.DueDate
		doc.DueDate = &d
	} else if doc.DueDate == nil {
		due := doc.InvoiceDate.AddDays(terms)
		doc.DueDate = &due
	}

	currency := doc.Currency
	if req.Currency != nil {
		currency = *req.Currency
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if len(currency) != 3 {
		return common.Errorf(common.KindBadRequest, "currency %q must be a 3-letter code", currency)
	}
	doc.Currency = currency

	if req.ReverseChargeBuilding != nil {
		doc.ReverseChargeBuilding = *req.ReverseChargeBuilding
	}
	if req.RotRutFlag != nil {
		doc.RotRutFlag = *req.RotRutFlag
	}

	return nil
}

// snapshotCustomer embeds a point-in-time customer copy. The customer binding
// comes from the document first and the project second; a document without
// any binding, or whose customer record has been removed, locks without a
// snapshot.
func (s *invoiceBasisService) snapshotCustomer(ctx context.Context, doc *models.InvoiceBasis, project *models.Project, now time.Time) error {
	customerID := doc.CustomerID
	if customerID == nil {
		customerID = project.CustomerID
	}
	if customerID == nil {
		return nil
	}

	customer, err := s.customers.GetByID(ctx, doc.OrgID, *customerID)
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return nil
		}
		return common.WrapInternal("failed to load customer for snapshot", err)
	}

	doc.CustomerID = customerID
	doc.CustomerSnapshot = customer.Snapshot(now)
	return nil
}

// firstString returns the first non-blank candidate, trimmed, falling back
// to the default.
func firstString(fallback string, candidates ...*string) string {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*c); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
