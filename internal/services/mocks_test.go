package services

import (
	"context"
	"sync"
	"time"

	"byggmart/internal/common"
	"byggmart/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// Mock repositories

type MockInvoiceBasisRepository struct {
	mock.Mock
}

func (m *MockInvoiceBasisRepository) Create(ctx context.Context, doc *models.InvoiceBasis) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockInvoiceBasisRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.InvoiceBasis, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceBasis), args.Error(1)
}

func (m *MockInvoiceBasisRepository) FindByPeriod(ctx context.Context, orgID, projectID uuid.UUID, periodStart, periodEnd models.Date) (*models.InvoiceBasis, error) {
	args := m.Called(ctx, orgID, projectID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceBasis), args.Error(1)
}

func (m *MockInvoiceBasisRepository) UpdateHeader(ctx context.Context, doc *models.InvoiceBasis) (int64, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceBasisRepository) UpdateLines(ctx context.Context, doc *models.InvoiceBasis) (int64, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceBasisRepository) Lock(ctx context.Context, doc *models.InvoiceBasis) (int64, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(int64), args.Error(1)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) GetByEntity(ctx context.Context, orgID uuid.UUID, entityType, entityID string, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, orgID, entityType, entityID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

// stubRecorder captures audit entries synchronously so tests can assert on
// them without racing the real recorder's goroutine.
type stubRecorder struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *stubRecorder) Record(entry *models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *stubRecorder) Flush(ctx context.Context) error { return nil }

func (r *stubRecorder) Pending() int { return 0 }

func (r *stubRecorder) recorded() []*models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AuditLog(nil), r.entries...)
}

// fakeCache is an in-memory stand-in for the redis cache.
type fakeCache struct {
	mu      sync.Mutex
	store   map[string]*models.InvoiceBasis
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]*models.InvoiceBasis)}
}

func (c *fakeCache) key(orgID, id uuid.UUID) string {
	return orgID.String() + ":" + id.String()
}

func (c *fakeCache) GetInvoiceBasis(ctx context.Context, orgID, id uuid.UUID) (*models.InvoiceBasis, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[c.key(orgID, id)], nil
}

func (c *fakeCache) SetInvoiceBasis(ctx context.Context, doc *models.InvoiceBasis, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[c.key(doc.OrgID, doc.ID)] = doc
	return nil
}

func (c *fakeCache) DeleteInvoiceBasis(ctx context.Context, orgID, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, c.key(orgID, id))
	c.deletes++
	return nil
}

// Shared fixtures

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func adminPrincipal(orgID uuid.UUID) common.Principal {
	return common.Principal{UserID: uuid.New(), OrgID: orgID, Role: RoleAdmin}
}

func foremanPrincipal(orgID uuid.UUID) common.Principal {
	return common.Principal{UserID: uuid.New(), OrgID: orgID, Role: RoleForeman}
}

func draftDoc(orgID, projectID uuid.UUID) *models.InvoiceBasis {
	return &models.InvoiceBasis{
		ID:          uuid.New(),
		OrgID:       orgID,
		ProjectID:   projectID,
		PeriodStart: models.NewDate(2025, time.May, 1),
		PeriodEnd:   models.NewDate(2025, time.May, 31),
		Currency:    "SEK",
		Lines: []models.InvoiceBasisLine{
			{
				ID:        uuid.New(),
				Type:      models.LineTypeTime,
				Quantity:  decimal.NewFromInt(8),
				UnitPrice: decimal.NewFromInt(650),
				Discount:  decimal.Zero,
				VATRate:   decimal.NewFromInt(25),
			},
			{
				ID:        uuid.New(),
				Type:      models.LineTypeDiary,
				Quantity:  decimal.NewFromInt(1),
				UnitPrice: decimal.NewFromInt(1200),
				Discount:  decimal.Zero,
				VATRate:   decimal.NewFromInt(25),
			},
		},
	}
}
