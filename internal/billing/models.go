package billing

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Subscription is the stored billing state of one user.
type Subscription struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	CustomerID string             `json:"customer_id"`
	PriceID    string             `json:"price_id"`
	Status     Status             `json:"status"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
}

type CreateParams struct {
	UserID     uuid.UUID
	CustomerID string
	PriceID    string
	Status     Status
}
