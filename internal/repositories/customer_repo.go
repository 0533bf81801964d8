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

type CustomerRepository interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error)
}

type customerRepo struct {
	db DB
}

func NewCustomerRepo(db DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error) {
	query := `
		SELECT id, org_id, name, org_no, vat_no, email, phone,
			address_name, address_care_of, address_street, address_postal_code, address_city, address_country,
			created_at, updated_at
		FROM customers
		WHERE org_id = $1 AND id = $2
	`

	var (
		customer models.Customer
		name     *string
		careOf   *string
		street   *string
		postal   *string
		city     *string
		country  *string
	)
	err := r.db.QueryRow(ctx, query, orgID, id).Scan(
		&customer.ID, &customer.OrgID, &customer.Name, &customer.OrgNo, &customer.VATNo,
		&customer.Email, &customer.Phone,
		&name, &careOf, &street, &postal, &city, &country,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewError(common.KindNotFound, "customer not found")
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	customer.Address = models.Address{
		Name:       common.SafeString(name),
		CareOf:     common.SafeString(careOf),
		Street:     common.SafeString(street),
		PostalCode: common.SafeString(postal),
		City:       common.SafeString(city),
		Country:    common.SafeString(country),
	}
	return &customer, nil
}
