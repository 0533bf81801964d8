package services

import (
	"context"
	"strings"

	"byggmart/internal/common"
	"byggmart/internal/finance"
	"byggmart/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HeaderUpdate is a sparse header mutation. Absent fields leave the stored
// value untouched, explicit nulls clear nullable fields, values replace.
type HeaderUpdate struct {
	InvoiceSeries         models.Optional[string]          `json:"invoice_series"`
	InvoiceNumber         models.Optional[string]          `json:"invoice_number"`
	InvoiceDate           models.Optional[models.Date]     `json:"invoice_date"`
	DueDate               models.Optional[models.Date]     `json:"due_date"`
	PaymentTermsDays      models.Optional[int]             `json:"payment_terms_days"`
	OCRRef                models.Optional[string]          `json:"ocr_ref"`
	OurRef                models.Optional[string]          `json:"our_ref"`
	YourRef               models.Optional[string]          `json:"your_ref"`
	Currency              models.Optional[string]          `json:"currency"`
	FxRate                models.Optional[decimal.Decimal] `json:"fx_rate"`
	ReverseChargeBuilding models.Optional[bool]            `json:"reverse_charge_building"`
	RotRutFlag            models.Optional[bool]            `json:"rot_rut_flag"`
	CostCenter            models.Optional[string]          `json:"cost_center"`
	ResultUnit            models.Optional[string]          `json:"result_unit"`
	InvoiceAddress        models.Optional[models.Address]  `json:"invoice_address"`
	DeliveryAddress       models.Optional[models.Address]  `json:"delivery_address"`
	WorksiteAddress       models.Optional[models.Address]  `json:"worksite_address"`
	WorksiteID            models.Optional[string]          `json:"worksite_id"`
}

// Empty reports whether no field was supplied at all.
func (u *HeaderUpdate) Empty() bool {
	return !u.InvoiceSeries.Present && !u.InvoiceNumber.Present &&
		!u.InvoiceDate.Present && !u.DueDate.Present && !u.PaymentTermsDays.Present &&
		!u.OCRRef.Present && !u.OurRef.Present && !u.YourRef.Present &&
		!u.Currency.Present && !u.FxRate.Present &&
		!u.ReverseChargeBuilding.Present && !u.RotRutFlag.Present &&
		!u.CostCenter.Present && !u.ResultUnit.Present &&
		!u.InvoiceAddress.Present && !u.DeliveryAddress.Present &&
		!u.WorksiteAddress.Present && !u.WorksiteID.Present
}

func (s *invoiceBasisService) UpdateHeader(ctx context.Context, principal common.Principal, id uuid.UUID, update *HeaderUpdate) (*models.InvoiceBasis, error) {
	if err := Authorize(principal.Role, ActionEditInvoiceBasis); err != nil {
		return nil, err
	}
	if update == nil || update.Empty() {
		return nil, common.NewError(common.KindBadRequest, "no header fields to update")
	}

	doc, err := s.loadDraft(ctx, principal.OrgID, id)
	if err != nil {
		return nil, err
	}
	before := headerSnapshot(doc)

	if err := applyHeaderUpdate(doc, update); err != nil {
		return nil, err
	}

	affected, err := s.repo.UpdateHeader(ctx, doc)
	if err != nil {
		return nil, common.WrapInternal("failed to persist header update", err)
	}
	if affected == 0 {
		return nil, common.NewError(common.KindConflict, "invoice basis is locked")
	}

	s.cacheInvalidate(ctx, principal.OrgID, id)
	s.audit(principal, id, models.ActionHeaderUpdate, before, headerSnapshot(doc))
	return doc, nil
}

func applyHeaderUpdate(doc *models.InvoiceBasis, update *HeaderUpdate) error {
	applyOptionalString(&doc.InvoiceSeries, update.InvoiceSeries)
	applyOptionalString(&doc.InvoiceNumber, update.InvoiceNumber)
	applyOptionalString(&doc.OurRef, update.OurRef)
	applyOptionalString(&doc.YourRef, update.YourRef)
	applyOptionalString(&doc.CostCenter, update.CostCenter)
	applyOptionalString(&doc.ResultUnit, update.ResultUnit)
	applyOptionalString(&doc.WorksiteID, update.WorksiteID)

	if update.InvoiceDate.Present {
		if update.InvoiceDate.Null {
			doc.InvoiceDate = nil
		} else {
			d := update.InvoiceDate.Value
			doc.InvoiceDate = &d
		}
	}
	if update.PaymentTermsDays.Present {
		if update.PaymentTermsDays.Null {
			doc.PaymentTermsDays = nil
		} else {
			terms := update.PaymentTermsDays.Value
			if terms < 0 || terms > 365 {
				return common.Errorf(common.KindBadRequest, "payment_terms_days %d out of range 0..365", terms)
			}
			doc.PaymentTermsDays = &terms
		}
	}

	if update.OCRRef.Present {
		if update.OCRRef.Null {
			doc.OCRRef = nil
		} else if ref := common.TrimmedOrNil(update.OCRRef.Value); ref == nil {
			doc.OCRRef = nil
		} else {
			if !finance.ValidReference(*ref) {
				return common.Errorf(common.KindBadRequest, "ocr_ref %q fails its mod-10 check digit", *ref)
			}
			doc.OCRRef = ref
		}
	}

	switch {
	case update.DueDate.Present && update.DueDate.Null:
		doc.DueDate = nil
	case update.DueDate.Present:
		d := update.DueDate.Value
		doc.DueDate = &d
	default:
		// No explicit due date in this request: keep it derived from invoice
		// date and terms whenever both are known.
		if doc.InvoiceDate != nil && doc.PaymentTermsDays != nil {
			due := doc.InvoiceDate.AddDays(*doc.PaymentTermsDays)
			doc.DueDate = &due
		}
	}

	if update.Currency.Present {
		if update.Currency.Null {
			return common.NewError(common.KindBadRequest, "currency cannot be cleared")
		}
		currency := strings.ToUpper(strings.TrimSpace(update.Currency.Value))
		if len(currency) != 3 {
			return common.Errorf(common.KindBadRequest, "currency %q must be a 3-letter code", update.Currency.Value)
		}
		doc.Currency = currency
		if doc.Totals != nil {
			doc.Totals.Currency = currency
		}
	}
	if update.FxRate.Present {
		if update.FxRate.Null {
			doc.FxRate = nil
		} else {
			if update.FxRate.Value.IsNegative() {
				return common.NewError(common.KindBadRequest, "fx_rate must not be negative")
			}
			rate := update.FxRate.Value
			doc.FxRate = &rate
		}
	}

	if update.ReverseChargeBuilding.Present {
		if update.ReverseChargeBuilding.Null {
			return common.NewError(common.KindBadRequest, "reverse_charge_building cannot be cleared")
		}
		doc.ReverseChargeBuilding = update.ReverseChargeBuilding.Value
	}
	if update.RotRutFlag.Present {
		if update.RotRutFlag.Null {
			return common.NewError(common.KindBadRequest, "rot_rut_flag cannot be cleared")
		}
		doc.RotRutFlag = update.RotRutFlag.Value
	}

	applyOptionalAddress(&doc.InvoiceAddress, update.InvoiceAddress)
	applyOptionalAddress(&doc.DeliveryAddress, update.DeliveryAddress)
	applyOptionalAddress(&doc.WorksiteAddress, update.WorksiteAddress)

	return nil
}

// applyOptionalString writes a nullable string field: values are trimmed and
// an empty-after-trim value clears like a null.
func applyOptionalString(target **string, opt models.Optional[string]) {
	if !opt.Present {
		return
	}
	if opt.Null {
		*target = nil
		return
	}
	*target = common.TrimmedOrNil(opt.Value)
}

func applyOptionalAddress(target **models.Address, opt models.Optional[models.Address]) {
	if !opt.Present {
		return
	}
	if opt.Null {
		*target = nil
		return
	}
	addr := opt.Value
	*target = &addr
}
