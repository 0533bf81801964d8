package repositories

import (
	"context"
	"errors"
	"fmt"

	"byggmart/internal/common"
	"byggmart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Project, error)
}

type projectRepo struct {
	db DB
}

func NewProjectRepo(db DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Project, error) {
	query := `
		SELECT id, org_id, name, project_number, customer_id, created_at, updated_at
		FROM projects
		WHERE org_id = $1 AND id = $2
	`

	var project models.Project
	err := r.db.QueryRow(ctx, query, orgID, id).Scan(
		&project.ID, &project.OrgID, &project.Name, &project.ProjectNumber,
		&project.CustomerID, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewError(common.KindNotFound, "project not found")
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}
