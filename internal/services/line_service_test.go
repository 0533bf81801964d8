package services

import (
	"context"
	"testing"

	"byggmart/internal/common"
	"byggmart/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LineServiceTestSuite struct {
	suite.Suite
	repo      *MockInvoiceBasisRepository
	recorder  *stubRecorder
	service   InvoiceBasisService
	orgID     uuid.UUID
	projectID uuid.UUID
	ctx       context.Context
}

func (suite *LineServiceTestSuite) SetupTest() {
	suite.repo = &MockInvoiceBasisRepository{}
	suite.recorder = &stubRecorder{}
	suite.service = NewInvoiceBasisService(suite.repo, &MockProjectRepository{}, &MockCustomerRepository{}, &MockAuditLogsRepository{}, suite.recorder, newFakeCache())
	suite.orgID = uuid.New()
	suite.projectID = uuid.New()
	suite.ctx = context.Background()
}

func TestLineServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LineServiceTestSuite))
}

func (suite *LineServiceTestSuite) TestUpdateLine_RecomputesTotals() {
	doc := draftDoc(suite.orgID, suite.projectID)
	lineID := doc.Lines[0].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)
	suite.repo.On("UpdateLines", suite.ctx, mock.Anything).Return(int64(1), nil)

	update := &LineUpdate{UnitPrice: models.Some(dec("700"))}
	updated, err := suite.service.UpdateLine(suite.ctx, foremanPrincipal(suite.orgID), doc.ID, lineID, update)
	require.NoError(suite.T(), err)

	// 8 x 700 + the untouched diary line at 1 x 1200.
	require.NotNil(suite.T(), updated.Totals)
	assert.Equal(suite.T(), "6800.00", updated.Totals.Net.StringFixed(2))
	assert.Equal(suite.T(), "1700.00", updated.Totals.VAT.StringFixed(2))
	assert.Equal(suite.T(), "8500.00", updated.Totals.Gross.StringFixed(2))
}

func (suite *LineServiceTestSuite) TestUpdateLine_DiaryLineImmutable() {
	doc := draftDoc(suite.orgID, suite.projectID)
	diaryID := doc.Lines[1].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)

	update := &LineUpdate{UnitPrice: models.Some(dec("1"))}
	_, err := suite.service.UpdateLine(suite.ctx, adminPrincipal(suite.orgID), doc.ID, diaryID, update)
	assert.Equal(suite.T(), common.KindBadRequest, common.KindOf(err))
	suite.repo.AssertNotCalled(suite.T(), "UpdateLines", mock.Anything, mock.Anything)
}

func (suite *LineServiceTestSuite) TestUpdateLine_AmountBackSolve() {
	doc := draftDoc(suite.orgID, suite.projectID)
	lineID := doc.Lines[0].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)
	suite.repo.On("UpdateLines", suite.ctx, mock.Anything).Return(int64(1), nil)

	// Quantity stays 8; targeting a 5000 net backs into 625 per unit.
	update := &LineUpdate{Amount: models.Some(dec("5000"))}
	updated, err := suite.service.UpdateLine(suite.ctx, foremanPrincipal(suite.orgID), doc.ID, lineID, update)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "625", updated.Lines[0].UnitPrice.String())
	assert.Equal(suite.T(), "6200.00", updated.Totals.Net.StringFixed(2))
}

func (suite *LineServiceTestSuite) TestUpdateLine_AmountWithZeroQuantity() {
	doc := draftDoc(suite.orgID, suite.projectID)
	lineID := doc.Lines[0].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)

	update := &LineUpdate{
		Quantity: models.Some(dec("0")),
		Amount:   models.Some(dec("5000")),
	}
	_, err := suite.service.UpdateLine(suite.ctx, adminPrincipal(suite.orgID), doc.ID, lineID, update)
	assert.Equal(suite.T(), common.KindBadRequest, common.KindOf(err))
}

func (suite *LineServiceTestSuite) TestUpdateLine_AmountWinsOverUnitPrice() {
	doc := draftDoc(suite.orgID, suite.projectID)
	lineID := doc.Lines[0].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)
	suite.repo.On("UpdateLines", suite.ctx, mock.Anything).Return(int64(1), nil)

	// Both supplied: the amount back-solve overrides the explicit unit price.
	update := &LineUpdate{
		UnitPrice: models.Some(dec("10")),
		Amount:    models.Some(dec("5000")),
	}
	updated, err := suite.service.UpdateLine(suite.ctx, adminPrincipal(suite.orgID), doc.ID, lineID, update)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "625", updated.Lines[0].UnitPrice.String())
}

func (suite *LineServiceTestSuite) TestUpdateLine_NegativeNumbersRejected() {
	doc := draftDoc(suite.orgID, suite.projectID)
	lineID := doc.Lines[0].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)

	cases := []struct {
		name   string
		update *LineUpdate
	}{
		{"negative quantity", &LineUpdate{Quantity: models.Some(dec("-3"))}},
		{"negative unit price", &LineUpdate{UnitPrice: models.Some(dec("-650"))}},
		{"negative amount", &LineUpdate{Amount: models.Some(dec("-5000"))}},
		{"negative vat rate", &LineUpdate{VATRate: models.Some(dec("-25"))}},
	}

	for _, tc := range cases {
		_, err := suite.service.UpdateLine(suite.ctx, adminPrincipal(suite.orgID), doc.ID, lineID, tc.update)
		assert.Equal(suite.T(), common.KindBadRequest, common.KindOf(err), tc.name)
	}
	suite.repo.AssertNotCalled(suite.T(), "UpdateLines", mock.Anything, mock.Anything)
}

func (suite *LineServiceTestSuite) TestUpdateLine_DimensionsMerge() {
	doc := draftDoc(suite.orgID, suite.projectID)
	doc.Lines[0].Dimensions = map[string]string{"cost_center": "A", "phase": "1"}
	lineID := doc.Lines[0].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)
	suite.repo.On("UpdateLines", suite.ctx, mock.Anything).Return(int64(1), nil)

	worksite := "W2"
	update := &LineUpdate{
		Dimensions: models.Some(map[string]*string{
			"phase":    nil, // remove
			"worksite": &worksite,
		}),
	}
	updated, err := suite.service.UpdateLine(suite.ctx, foremanPrincipal(suite.orgID), doc.ID, lineID, update)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), map[string]string{"cost_center": "A", "worksite": "W2"}, updated.Lines[0].Dimensions)
}

func (suite *LineServiceTestSuite) TestUpdateLine_NotFound() {
	doc := draftDoc(suite.orgID, suite.projectID)
	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)

	update := &LineUpdate{UnitPrice: models.Some(dec("1"))}
	_, err := suite.service.UpdateLine(suite.ctx, adminPrincipal(suite.orgID), doc.ID, uuid.New(), update)
	assert.Equal(suite.T(), common.KindNotFound, common.KindOf(err))
}

func (suite *LineServiceTestSuite) TestUpdateLine_ConcurrentLockConflict() {
	doc := draftDoc(suite.orgID, suite.projectID)
	lineID := doc.Lines[0].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)
	suite.repo.On("UpdateLines", suite.ctx, mock.Anything).Return(int64(0), nil)

	update := &LineUpdate{UnitPrice: models.Some(dec("1"))}
	_, err := suite.service.UpdateLine(suite.ctx, adminPrincipal(suite.orgID), doc.ID, lineID, update)
	assert.Equal(suite.T(), common.KindConflict, common.KindOf(err))
}

func (suite *LineServiceTestSuite) TestUpdateLine_AuditsSingleLine() {
	doc := draftDoc(suite.orgID, suite.projectID)
	lineID := doc.Lines[0].ID

	suite.repo.On("GetByID", suite.ctx, suite.orgID, doc.ID).Return(doc, nil)
	suite.repo.On("UpdateLines", suite.ctx, mock.Anything).Return(int64(1), nil)

	update := &LineUpdate{Description: models.Some("Carpentry, week 22")}
	_, err := suite.service.UpdateLine(suite.ctx, foremanPrincipal(suite.orgID), doc.ID, lineID, update)
	require.NoError(suite.T(), err)

	entries := suite.recorder.recorded()
	require.Len(suite.T(), entries, 1)
	assert.Equal(suite.T(), models.ActionLineUpdate, entries[0].Action)
	assert.Equal(suite.T(), lineID.String(), entries[0].NewData["id"])
	assert.Equal(suite.T(), "Carpentry, week 22", entries[0].NewData["description"])
}
