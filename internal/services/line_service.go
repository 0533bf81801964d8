package services

import (
	"context"

	"byggmart/internal/common"
	"byggmart/internal/finance"
	"byggmart/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineUpdate is a sparse mutation of one line. Amount is an alternative to
// UnitPrice: when supplied, the unit price is back-solved from the target net
// amount and the effective quantity.
type LineUpdate struct {
	Description models.Optional[string]             `json:"description"`
	ArticleCode models.Optional[string]             `json:"article_code"`
	Account     models.Optional[string]             `json:"account"`
	Unit        models.Optional[string]             `json:"unit"`
	VATCode     models.Optional[string]             `json:"vat_code"`
	Quantity    models.Optional[decimal.Decimal]    `json:"quantity"`
	UnitPrice   models.Optional[decimal.Decimal]    `json:"unit_price"`
	Amount      models.Optional[decimal.Decimal]    `json:"amount"`
	Discount    models.Optional[decimal.Decimal]    `json:"discount"`
	VATRate     models.Optional[decimal.Decimal]    `json:"vat_rate"`
	Dimensions  models.Optional[map[string]*string] `json:"dimensions"`
	Attachments models.Optional[[]string]           `json:"attachments"`
}

func (u *LineUpdate) Empty() bool {
	return !u.Description.Present && !u.ArticleCode.Present && !u.Account.Present &&
		!u.Unit.Present && !u.VATCode.Present &&
		!u.Quantity.Present && !u.UnitPrice.Present && !u.Amount.Present &&
		!u.Discount.Present && !u.VATRate.Present &&
		!u.Dimensions.Present && !u.Attachments.Present
}

func (s *invoiceBasisService) UpdateLine(ctx context.Context, principal common.Principal, id, lineID uuid.UUID, update *LineUpdate) (*models.InvoiceBasis, error) {
	if err := Authorize(principal.Role, ActionEditInvoiceBasis); err != nil {
		return nil, err
	}
	if update == nil || update.Empty() {
		return nil, common.NewError(common.KindBadRequest, "no line fields to update")
	}

	doc, err := s.loadDraft(ctx, principal.OrgID, id)
	if err != nil {
		return nil, err
	}

	idx := doc.LineByID(lineID)
	if idx < 0 {
		return nil, common.NewError(common.KindNotFound, "invoice basis line not found")
	}
	line := &doc.Lines[idx]
	if line.ReadOnly() {
		return nil, common.Errorf(common.KindBadRequest, "%s lines originate from site reporting and cannot be edited here", line.Type)
	}
	before := toJSONB(*line)

	if err := applyLineUpdate(line, update); err != nil {
		return nil, err
	}
	doc.Totals = finance.Calculate(doc.Lines, doc.Currency)

	affected, err := s.repo.UpdateLines(ctx, doc)
	if err != nil {
		return nil, common.WrapInternal("failed to persist line update", err)
	}
	if affected == 0 {
		return nil, common.NewError(common.KindConflict, "invoice basis is locked")
	}

	s.cacheInvalidate(ctx, principal.OrgID, id)
	s.audit(principal, id, models.ActionLineUpdate, before, toJSONB(*line))
	return doc, nil
}

func applyLineUpdate(line *models.InvoiceBasisLine, update *LineUpdate) error {
	applyOptionalString(&line.Description, update.Description)
	applyOptionalString(&line.ArticleCode, update.ArticleCode)
	applyOptionalString(&line.Account, update.Account)
	applyOptionalString(&line.Unit, update.Unit)
	applyOptionalString(&line.VATCode, update.VATCode)

	if update.Quantity.Present {
		if update.Quantity.Null {
			return common.NewError(common.KindBadRequest, "quantity cannot be cleared")
		}
		if update.Quantity.Value.IsNegative() {
			return common.NewError(common.KindBadRequest, "quantity must not be negative")
		}
		line.Quantity = update.Quantity.Value
	}

	if update.UnitPrice.Present {
		if update.UnitPrice.Null {
			return common.NewError(common.KindBadRequest, "unit_price cannot be cleared")
		}
		if update.UnitPrice.Value.IsNegative() {
			return common.NewError(common.KindBadRequest, "unit_price must not be negative")
		}
		line.UnitPrice = update.UnitPrice.Value
	}

	if update.Discount.Present {
		if update.Discount.Null {
			line.Discount = decimal.Zero
		} else {
			discount := update.Discount.Value
			if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
				return common.Errorf(common.KindBadRequest, "discount %s out of range 0..100", discount)
			}
			line.Discount = discount
		}
	}
	if update.VATRate.Present {
		if update.VATRate.Null {
			return common.NewError(common.KindBadRequest, "vat_rate cannot be cleared")
		}
		if update.VATRate.Value.IsNegative() {
			return common.NewError(common.KindBadRequest, "vat_rate must not be negative")
		}
		line.VATRate = update.VATRate.Value
	}

	// The back-solve uses the quantity effective after this update, so a
	// payload may set quantity and amount together. When unit_price was also
	// supplied, the amount-derived price wins.
	if update.Amount.Present {
		if update.Amount.Null {
			return common.NewError(common.KindBadRequest, "amount cannot be cleared")
		}
		if update.Amount.Value.IsNegative() {
			return common.NewError(common.KindBadRequest, "amount must not be negative")
		}
		if line.Quantity.IsZero() {
			return common.NewError(common.KindBadRequest, "cannot derive unit price from amount when quantity is zero")
		}
		line.UnitPrice = update.Amount.Value.Div(line.Quantity)
	}

	if update.Dimensions.Present {
		if update.Dimensions.Null {
			line.Dimensions = nil
		} else {
			if line.Dimensions == nil {
				line.Dimensions = make(map[string]string, len(update.Dimensions.Value))
			}
			for key, value := range update.Dimensions.Value {
				if value == nil {
					delete(line.Dimensions, key)
				} else {
					line.Dimensions[key] = *value
				}
			}
			if len(line.Dimensions) == 0 {
				line.Dimensions = nil
			}
		}
	}

	if update.Attachments.Present {
		if update.Attachments.Null {
			line.Attachments = nil
		} else {
			line.Attachments = update.Attachments.Value
		}
	}

	return nil
}
