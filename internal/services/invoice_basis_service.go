package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"byggmart/internal/caching"
	"byggmart/internal/common"
	"byggmart/internal/models"
	"byggmart/internal/repositories"

	"github.com/google/uuid"
)

const invoiceBasisCacheTTL = 5 * time.Minute

// InvoiceBasisService is the single entry point for reading and mutating
// invoice basis documents. Every method takes the caller principal and makes
// its own authorization decision through Authorize.
type InvoiceBasisService interface {
	FindByPeriod(ctx context.Context, principal common.Principal, projectID uuid.UUID, periodStart, periodEnd models.Date) (*models.InvoiceBasis, error)
	GetByID(ctx context.Context, principal common.Principal, id uuid.UUID) (*models.InvoiceBasis, error)
	UpdateHeader(ctx context.Context, principal common.Principal, id uuid.UUID, update *HeaderUpdate) (*models.InvoiceBasis, error)
	UpdateLine(ctx context.Context, principal common.Principal, id, lineID uuid.UUID, update *LineUpdate) (*models.InvoiceBasis, error)
	Lock(ctx context.Context, principal common.Principal, id uuid.UUID, req *LockRequest) (*models.InvoiceBasis, error)
	AuditTrail(ctx context.Context, principal common.Principal, id uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}

type invoiceBasisService struct {
	repo      repositories.InvoiceBasisRepository
	projects  repositories.ProjectRepository
	customers repositories.CustomerRepository
	auditRepo repositories.AuditLogsRepository
	recorder  AuditRecorder
	cache     caching.CacheService
}

func NewInvoiceBasisService(
	repo repositories.InvoiceBasisRepository,
	projects repositories.ProjectRepository,
	customers repositories.CustomerRepository,
	auditRepo repositories.AuditLogsRepository,
	recorder AuditRecorder,
	cache caching.CacheService,
) InvoiceBasisService {
	return &invoiceBasisService{
		repo:      repo,
		projects:  projects,
		customers: customers,
		auditRepo: auditRepo,
		recorder:  recorder,
		cache:     cache,
	}
}

func (s *invoiceBasisService) FindByPeriod(ctx context.Context, principal common.Principal, projectID uuid.UUID, periodStart, periodEnd models.Date) (*models.InvoiceBasis, error) {
	if err := Authorize(principal.Role, ActionViewInvoiceBasis); err != nil {
		return nil, err
	}
	if periodEnd.Time.Before(periodStart.Time) {
		return nil, common.NewError(common.KindBadRequest, "period_end must not precede period_start")
	}

	doc, err := s.repo.FindByPeriod(ctx, principal.OrgID, projectID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, doc)
	return doc, nil
}

func (s *invoiceBasisService) GetByID(ctx context.Context, principal common.Principal, id uuid.UUID) (*models.InvoiceBasis, error) {
	if err := Authorize(principal.Role, ActionViewInvoiceBasis); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetInvoiceBasis(ctx, principal.OrgID, id)
		if err != nil {
			log.Printf("WARN: invoice basis cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	doc, err := s.repo.GetByID(ctx, principal.OrgID, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, doc)
	return doc, nil
}

func (s *invoiceBasisService) AuditTrail(ctx context.Context, principal common.Principal, id uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	if err := Authorize(principal.Role, ActionViewAuditLog); err != nil {
		return nil, err
	}
	// Resolve the document first so the trail of another tenant's document
	// reads as not found rather than as an empty list.
	if _, err := s.repo.GetByID(ctx, principal.OrgID, id); err != nil {
		return nil, err
	}
	return s.auditRepo.GetByEntity(ctx, principal.OrgID, models.EntityInvoiceBasis, id.String(), limit, offset)
}

// loadDraft fetches the document fresh from the store and rejects locked
// documents up front. The conditional update still re-checks the flag; this
// check only produces the friendlier early error.
func (s *invoiceBasisService) loadDraft(ctx context.Context, orgID, id uuid.UUID) (*models.InvoiceBasis, error) {
	doc, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if doc.Locked {
		return nil, common.NewError(common.KindConflict, "invoice basis is locked")
	}
	return doc, nil
}

func (s *invoiceBasisService) cacheSet(ctx context.Context, doc *models.InvoiceBasis) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetInvoiceBasis(ctx, doc, invoiceBasisCacheTTL); err != nil {
		log.Printf("WARN: invoice basis cache write failed: %v", err)
	}
}

func (s *invoiceBasisService) cacheInvalidate(ctx context.Context, orgID, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteInvoiceBasis(ctx, orgID, id); err != nil {
		log.Printf("WARN: invoice basis cache invalidation failed: %v", err)
	}
}

func (s *invoiceBasisService) audit(principal common.Principal, id uuid.UUID, action string, oldData, newData models.JSONB) {
	if s.recorder == nil {
		return
	}
	changedBy := principal.UserID
	s.recorder.Record(&models.AuditLog{
		OrgID:      principal.OrgID,
		EntityType: models.EntityInvoiceBasis,
		EntityID:   id.String(),
		Action:     action,
		OldData:    oldData,
		NewData:    newData,
		ChangedBy:  &changedBy,
	})
}

// toJSONB round-trips a value through JSON into the audit map form. Failures
// degrade to a nil map; the audit trail is best effort.
func toJSONB(v any) models.JSONB {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("WARN: audit payload marshal failed: %v", err)
		return nil
	}
	var out models.JSONB
	if err := json.Unmarshal(data, &out); err != nil {
		log.Printf("WARN: audit payload unmarshal failed: %v", err)
		return nil
	}
	return out
}

// headerSnapshot is the audit view of the header: the document without its
// line-level content.
func headerSnapshot(doc *models.InvoiceBasis) models.JSONB {
	snap := toJSONB(doc)
	delete(snap, "lines")
	delete(snap, "totals")
	delete(snap, "customer_snapshot")
	return snap
}
