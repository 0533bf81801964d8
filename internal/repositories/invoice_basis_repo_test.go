package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"byggmart/internal/common"
	"byggmart/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var invoiceBasisColumnNames = []string{
	"id", "org_id", "project_id", "period_start", "period_end",
	"invoice_series", "invoice_number", "invoice_date", "due_date", "payment_terms_days",
	"ocr_ref", "our_ref", "your_ref", "currency", "fx_rate",
	"reverse_charge_building", "rot_rut_flag", "cost_center", "result_unit",
	"invoice_address", "delivery_address", "worksite_address", "worksite_id",
	"customer_id", "customer_snapshot", "lines", "totals",
	"locked", "locked_by", "locked_at", "hash_signature", "updated_at",
}

type InvoiceBasisRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      InvoiceBasisRepository
	orgID     uuid.UUID
	projectID uuid.UUID
	docID     uuid.UUID
	ctx       context.Context
}

func (suite *InvoiceBasisRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewInvoiceBasisRepo(mock)
	suite.orgID = uuid.New()
	suite.projectID = uuid.New()
	suite.docID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *InvoiceBasisRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestInvoiceBasisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceBasisRepoTestSuite))
}

func (suite *InvoiceBasisRepoTestSuite) draftRow() ([]any, []models.InvoiceBasisLine, *models.Totals) {
	lines := []models.InvoiceBasisLine{
		{
			ID:        uuid.New(),
			Type:      models.LineTypeTime,
			Quantity:  decimal.NewFromInt(8),
			UnitPrice: decimal.NewFromInt(650),
			Discount:  decimal.Zero,
			VATRate:   decimal.NewFromInt(25),
		},
	}
	totals := &models.Totals{
		Currency: "SEK",
		Net:      decimal.RequireFromString("5200.00"),
		VAT:      decimal.RequireFromString("1300.00"),
		Gross:    decimal.RequireFromString("6500.00"),
	}

	linesJSON, err := json.Marshal(lines)
	require.NoError(suite.T(), err)
	totalsJSON, err := json.Marshal(totals)
	require.NoError(suite.T(), err)

	fxRate := "10.45"
	ourRef := "Anna Berg"

	row := []any{
		suite.docID, suite.orgID, suite.projectID,
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		nil, nil, nil, nil, nil,
		nil, &ourRef, nil, "SEK", &fxRate,
		false, false, nil, nil,
		nil, nil, nil, nil,
		nil, nil, linesJSON, totalsJSON,
		false, nil, nil, nil, time.Now(),
	}
	return row, lines, totals
}

func (suite *InvoiceBasisRepoTestSuite) TestGetByID_Success() {
	row, lines, totals := suite.draftRow()

	suite.mock.ExpectQuery(`SELECT(.|\s)*FROM invoice_basis`).
		WithArgs(suite.orgID, suite.docID).
		WillReturnRows(pgxmock.NewRows(invoiceBasisColumnNames).AddRow(row...))

	doc, err := suite.repo.GetByID(suite.ctx, suite.orgID, suite.docID)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), suite.docID, doc.ID)
	assert.Equal(suite.T(), "2025-05-01", doc.PeriodStart.String())
	assert.Equal(suite.T(), "2025-05-31", doc.PeriodEnd.String())
	assert.Equal(suite.T(), "SEK", doc.Currency)
	assert.False(suite.T(), doc.Locked)

	require.NotNil(suite.T(), doc.FxRate)
	assert.Equal(suite.T(), "10.45", doc.FxRate.String())

	require.Len(suite.T(), doc.Lines, 1)
	assert.Equal(suite.T(), lines[0].ID, doc.Lines[0].ID)
	assert.True(suite.T(), doc.Lines[0].UnitPrice.Equal(lines[0].UnitPrice))

	require.NotNil(suite.T(), doc.Totals)
	assert.True(suite.T(), doc.Totals.Gross.Equal(totals.Gross))

	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *InvoiceBasisRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT(.|\s)*FROM invoice_basis`).
		WithArgs(suite.orgID, suite.docID).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.ctx, suite.orgID, suite.docID)
	assert.Equal(suite.T(), common.KindNotFound, common.KindOf(err))
}

func (suite *InvoiceBasisRepoTestSuite) TestFindByPeriod_Success() {
	row, _, _ := suite.draftRow()
	start := models.NewDate(2025, time.May, 1)
	end := models.NewDate(2025, time.May, 31)

	suite.mock.ExpectQuery(`SELECT(.|\s)*FROM invoice_basis`).
		WithArgs(suite.orgID, suite.projectID, start.Time, end.Time).
		WillReturnRows(pgxmock.NewRows(invoiceBasisColumnNames).AddRow(row...))

	doc, err := suite.repo.FindByPeriod(suite.ctx, suite.orgID, suite.projectID, start, end)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.projectID, doc.ProjectID)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *InvoiceBasisRepoTestSuite) TestUpdateLines_Affected() {
	doc := &models.InvoiceBasis{
		ID:       suite.docID,
		OrgID:    suite.orgID,
		Currency: "SEK",
	}

	suite.mock.ExpectExec(`UPDATE invoice_basis`).
		WithArgs(suite.orgID, suite.docID, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	affected, err := suite.repo.UpdateLines(suite.ctx, doc)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), affected)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *InvoiceBasisRepoTestSuite) TestUpdateLines_LockedRowNotMatched() {
	doc := &models.InvoiceBasis{ID: suite.docID, OrgID: suite.orgID}

	suite.mock.ExpectExec(`UPDATE invoice_basis`).
		WithArgs(suite.orgID, suite.docID, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	affected, err := suite.repo.UpdateLines(suite.ctx, doc)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), affected, "a locked row must not match the guarded update")
}

func (suite *InvoiceBasisRepoTestSuite) TestLock_SecondAttemptMatchesNothing() {
	now := time.Now()
	userID := uuid.New()
	doc := &models.InvoiceBasis{
		ID:       suite.docID,
		OrgID:    suite.orgID,
		Currency: "SEK",
		LockedBy: &userID,
		LockedAt: &now,
	}

	args := []any{
		suite.orgID, suite.docID,
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
	}

	suite.mock.ExpectExec(`UPDATE invoice_basis`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE invoice_basis`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	affected, err := suite.repo.Lock(suite.ctx, doc)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), affected)

	affected, err = suite.repo.Lock(suite.ctx, doc)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), affected)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}
