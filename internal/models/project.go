package models

import (
	"time"

	"github.com/google/uuid"
)

// Project carries the customer binding and the human-facing project number
// whose digit suffix seeds generated OCR references.
type Project struct {
	ID            uuid.UUID  `json:"id"`
	OrgID         uuid.UUID  `json:"org_id"`
	Name          string     `json:"name"`
	ProjectNumber string     `json:"project_number"`
	CustomerID    *uuid.UUID `json:"customer_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
