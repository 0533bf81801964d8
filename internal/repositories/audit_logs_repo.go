package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"byggmart/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	GetByEntity(ctx context.Context, orgID uuid.UUID, entityType, entityID string, limit, offset int) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DB
}

func NewAuditLogsRepo(db DB) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_logs (id, org_id, entity_type, entity_id, action, old_data, new_data, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var oldData, newData []byte
	var err error
	if entry.OldData != nil {
		if oldData, err = json.Marshal(entry.OldData); err != nil {
			return fmt.Errorf("failed to marshal old_data: %w", err)
		}
	}
	if entry.NewData != nil {
		if newData, err = json.Marshal(entry.NewData); err != nil {
			return fmt.Errorf("failed to marshal new_data: %w", err)
		}
	}

	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.OrgID, entry.EntityType, entry.EntityID, entry.Action,
		oldData, newData, entry.ChangedBy, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditLogsRepo) GetByEntity(ctx context.Context, orgID uuid.UUID, entityType, entityID string, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, org_id, entity_type, entity_id, action, old_data, new_data, changed_by, created_at
		FROM audit_logs
		WHERE org_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Query(ctx, query, orgID, entityType, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		var oldData, newData []byte
		if err := rows.Scan(
			&entry.ID, &entry.OrgID, &entry.EntityType, &entry.EntityID, &entry.Action,
			&oldData, &newData, &entry.ChangedBy, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if len(oldData) > 0 {
			if err := json.Unmarshal(oldData, &entry.OldData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal old_data: %w", err)
			}
		}
		if len(newData) > 0 {
			if err := json.Unmarshal(newData, &entry.NewData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal new_data: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	return entries, nil
}
