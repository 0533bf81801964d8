package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"byggmart/internal/common"
	"byggmart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type InvoiceBasisRepository interface {
	Create(ctx context.Context, doc *models.InvoiceBasis) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.InvoiceBasis, error)
	FindByPeriod(ctx context.Context, orgID, projectID uuid.UUID, periodStart, periodEnd models.Date) (*models.InvoiceBasis, error)

	// The update methods guard on locked = false in the statement itself and
	// return the affected row count. Zero rows against an existing document
	// means it was locked concurrently; callers map that to a conflict.
	UpdateHeader(ctx context.Context, doc *models.InvoiceBasis) (int64, error)
	UpdateLines(ctx context.Context, doc *models.InvoiceBasis) (int64, error)
	Lock(ctx context.Context, doc *models.InvoiceBasis) (int64, error)
}

type invoiceBasisRepo struct {
	db DB
}

func NewInvoiceBasisRepo(db DB) InvoiceBasisRepository {
	return &invoiceBasisRepo{db: db}
}

const invoiceBasisColumns = `id, org_id, project_id, period_start, period_end,
	invoice_series, invoice_number, invoice_date, due_date, payment_terms_days,
	ocr_ref, our_ref, your_ref, currency, fx_rate,
	reverse_charge_building, rot_rut_flag, cost_center, result_unit,
	invoice_address, delivery_address, worksite_address, worksite_id,
	customer_id, customer_snapshot, lines, totals,
	locked, locked_by, locked_at, hash_signature, updated_at`

func (r *invoiceBasisRepo) Create(ctx context.Context, doc *models.InvoiceBasis) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.UpdatedAt = time.Now()

	query := `
		INSERT INTO invoice_basis (` + invoiceBasisColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
	`

	jsonCols, err := marshalJSONColumns(doc)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query,
		doc.ID, doc.OrgID, doc.ProjectID, doc.PeriodStart.Time, doc.PeriodEnd.Time,
		doc.InvoiceSeries, doc.InvoiceNumber, dateArg(doc.InvoiceDate), dateArg(doc.DueDate), doc.PaymentTermsDays,
		doc.OCRRef, doc.OurRef, doc.YourRef, doc.Currency, decimalArg(doc.FxRate),
		doc.ReverseChargeBuilding, doc.RotRutFlag, doc.CostCenter, doc.ResultUnit,
		jsonCols.invoiceAddress, jsonCols.deliveryAddress, jsonCols.worksiteAddress, doc.WorksiteID,
		doc.CustomerID, jsonCols.customerSnapshot, jsonCols.lines, jsonCols.totals,
		doc.Locked, doc.LockedBy, doc.LockedAt, doc.HashSignature, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice basis: %w", err)
	}
	return nil
}

func (r *invoiceBasisRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.InvoiceBasis, error) {
	query := `
		SELECT ` + invoiceBasisColumns + `
		FROM invoice_basis
		WHERE org_id = $1 AND id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, orgID, id))
}

func (r *invoiceBasisRepo) FindByPeriod(ctx context.Context, orgID, projectID uuid.UUID, periodStart, periodEnd models.Date) (*models.InvoiceBasis, error) {
	query := `
		SELECT ` + invoiceBasisColumns + `
		FROM invoice_basis
		WHERE org_id = $1 AND project_id = $2 AND period_start = $3 AND period_end = $4
	`
	return r.scanOne(r.db.QueryRow(ctx, query, orgID, projectID, periodStart.Time, periodEnd.Time))
}

func (r *invoiceBasisRepo) UpdateHeader(ctx context.Context, doc *models.InvoiceBasis) (int64, error) {
	doc.UpdatedAt = time.Now()

	query := `
		UPDATE invoice_basis
		SET invoice_series = $3, invoice_number = $4, invoice_date = $5, due_date = $6,
			payment_terms_days = $7, ocr_ref = $8, our_ref = $9, your_ref = $10, currency = $11,
			fx_rate = $12, reverse_charge_building = $13, rot_rut_flag = $14, cost_center = $15,
			result_unit = $16, invoice_address = $17, delivery_address = $18, worksite_address = $19,
			worksite_id = $20, updated_at = $21
		WHERE org_id = $1 AND id = $2 AND locked = false
	`

	jsonCols, err := marshalJSONColumns(doc)
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, query,
		doc.OrgID, doc.ID,
		doc.InvoiceSeries, doc.InvoiceNumber, dateArg(doc.InvoiceDate), dateArg(doc.DueDate),
		doc.PaymentTermsDays, doc.OCRRef, doc.OurRef, doc.YourRef, doc.Currency,
		decimalArg(doc.FxRate), doc.ReverseChargeBuilding, doc.RotRutFlag, doc.CostCenter,
		doc.ResultUnit, jsonCols.invoiceAddress, jsonCols.deliveryAddress, jsonCols.worksiteAddress,
		doc.WorksiteID, doc.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update invoice basis header: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *invoiceBasisRepo) UpdateLines(ctx context.Context, doc *models.InvoiceBasis) (int64, error) {
	doc.UpdatedAt = time.Now()

	query := `
		UPDATE invoice_basis
		SET lines = $3, totals = $4, updated_at = $5
		WHERE org_id = $1 AND id = $2 AND locked = false
	`

	jsonCols, err := marshalJSONColumns(doc)
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, query, doc.OrgID, doc.ID, jsonCols.lines, jsonCols.totals, doc.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to update invoice basis lines: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *invoiceBasisRepo) Lock(ctx context.Context, doc *models.InvoiceBasis) (int64, error) {
	doc.UpdatedAt = time.Now()

	query := `
		UPDATE invoice_basis
		SET invoice_series = $3, invoice_number = $4, invoice_date = $5, due_date = $6,
			payment_terms_days = $7, ocr_ref = $8, currency = $9,
			reverse_charge_building = $10, rot_rut_flag = $11,
			customer_snapshot = $12, totals = $13,
			locked = true, locked_by = $14, locked_at = $15, hash_signature = $16, updated_at = $17
		WHERE org_id = $1 AND id = $2 AND locked = false
	`

	jsonCols, err := marshalJSONColumns(doc)
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, query,
		doc.OrgID, doc.ID,
		doc.InvoiceSeries, doc.InvoiceNumber, dateArg(doc.InvoiceDate), dateArg(doc.DueDate),
		doc.PaymentTermsDays, doc.OCRRef, doc.Currency,
		doc.ReverseChargeBuilding, doc.RotRutFlag,
		jsonCols.customerSnapshot, jsonCols.totals,
		doc.LockedBy, doc.LockedAt, doc.HashSignature, doc.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to lock invoice basis: %w", err)
	}
	return tag.RowsAffected(), nil
}

// jsonColumns holds the marshaled JSONB columns of one row. Nil pointers map
// to SQL NULL.
type jsonColumns struct {
	invoiceAddress   []byte
	deliveryAddress  []byte
	worksiteAddress  []byte
	customerSnapshot []byte
	lines            []byte
	totals           []byte
}

func marshalJSONColumns(doc *models.InvoiceBasis) (*jsonColumns, error) {
	cols := &jsonColumns{}
	var err error

	if cols.lines, err = json.Marshal(doc.Lines); err != nil {
		return nil, fmt.Errorf("failed to marshal lines: %w", err)
	}
	if doc.Totals != nil {
		if cols.totals, err = json.Marshal(doc.Totals); err != nil {
			return nil, fmt.Errorf("failed to marshal totals: %w", err)
		}
	}
	if doc.InvoiceAddress != nil {
		if cols.invoiceAddress, err = json.Marshal(doc.InvoiceAddress); err != nil {
			return nil, fmt.Errorf("failed to marshal invoice_address: %w", err)
		}
	}
	if doc.DeliveryAddress != nil {
		if cols.deliveryAddress, err = json.Marshal(doc.DeliveryAddress); err != nil {
			return nil, fmt.Errorf("failed to marshal delivery_address: %w", err)
		}
	}
	if doc.WorksiteAddress != nil {
		if cols.worksiteAddress, err = json.Marshal(doc.WorksiteAddress); err != nil {
			return nil, fmt.Errorf("failed to marshal worksite_address: %w", err)
		}
	}
	if doc.CustomerSnapshot != nil {
		if cols.customerSnapshot, err = json.Marshal(doc.CustomerSnapshot); err != nil {
			return nil, fmt.Errorf("failed to marshal customer_snapshot: %w", err)
		}
	}
	return cols, nil
}

func (r *invoiceBasisRepo) scanOne(row pgx.Row) (*models.InvoiceBasis, error) {
	var (
		doc          models.InvoiceBasis
		periodStart  time.Time
		periodEnd    time.Time
		invoiceDate  *time.Time
		dueDate      *time.Time
		fxRate       *string
		invoiceAddr  []byte
		deliveryAddr []byte
		worksiteAddr []byte
		snapshot     []byte
		lines        []byte
		totals       []byte
	)

	err := row.Scan(
		&doc.ID, &doc.OrgID, &doc.ProjectID, &periodStart, &periodEnd,
		&doc.InvoiceSeries, &doc.InvoiceNumber, &invoiceDate, &dueDate, &doc.PaymentTermsDays,
		&doc.OCRRef, &doc.OurRef, &doc.YourRef, &doc.Currency, &fxRate,
		&doc.ReverseChargeBuilding, &doc.RotRutFlag, &doc.CostCenter, &doc.ResultUnit,
		&invoiceAddr, &deliveryAddr, &worksiteAddr, &doc.WorksiteID,
		&doc.CustomerID, &snapshot, &lines, &totals,
		&doc.Locked, &doc.LockedBy, &doc.LockedAt, &doc.HashSignature, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewError(common.KindNotFound, "invoice basis not found")
		}
		return nil, fmt.Errorf("failed to scan invoice basis: %w", err)
	}

	doc.PeriodStart = models.DateOf(periodStart)
	doc.PeriodEnd = models.DateOf(periodEnd)
	if invoiceDate != nil {
		d := models.DateOf(*invoiceDate)
		doc.InvoiceDate = &d
	}
	if dueDate != nil {
		d := models.DateOf(*dueDate)
		doc.DueDate = &d
	}
	if fxRate != nil {
		rate, err := decimal.NewFromString(*fxRate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fx_rate %q: %w", *fxRate, err)
		}
		doc.FxRate = &rate
	}

	if err := unmarshalInto(invoiceAddr, &doc.InvoiceAddress, "invoice_address"); err != nil {
		return nil, err
	}
	if err := unmarshalInto(deliveryAddr, &doc.DeliveryAddress, "delivery_address"); err != nil {
		return nil, err
	}
	if err := unmarshalInto(worksiteAddr, &doc.WorksiteAddress, "worksite_address"); err != nil {
		return nil, err
	}
	if err := unmarshalInto(snapshot, &doc.CustomerSnapshot, "customer_snapshot"); err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &doc.Lines); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lines: %w", err)
		}
	}
	if err := unmarshalInto(totals, &doc.Totals, "totals"); err != nil {
		return nil, err
	}

	return &doc, nil
}

func unmarshalInto[T any](data []byte, target **T, column string) error {
	if len(data) == 0 {
		return nil
	}
	value := new(T)
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", column, err)
	}
	*target = value
	return nil
}

// dateArg converts an optional Date to an optional time.Time for a DATE
// column.
func dateArg(d *models.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// decimalArg stores a decimal in its exact text form.
func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
