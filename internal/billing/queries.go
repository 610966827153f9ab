package billing

import (
	"context"

	"github.com/sheikharifulislam/OpnForm/internal"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Queries struct {
	db internal.DBTX
}

func New(db internal.DBTX) *Queries {
	return &Queries{db: db}
}

const createSubscription = `
INSERT INTO subscriptions (user_id, customer_id, price_id, status)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, customer_id, price_id, status, created_at, updated_at
`

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Subscription, error) {
	row := q.db.QueryRow(ctx, createSubscription, arg.UserID, arg.CustomerID, arg.PriceID, arg.Status)
	return scanSubscription(row)
}

const getSubscriptionByUserID = `
SELECT id, user_id, customer_id, price_id, status, created_at, updated_at
FROM subscriptions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetByUserID(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	row := q.db.QueryRow(ctx, getSubscriptionByUserID, userID)
	return scanSubscription(row)
}

const updateSubscriptionStatus = `
UPDATE subscriptions
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, user_id, customer_id, price_id, status, created_at, updated_at
`

func (q *Queries) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Subscription, error) {
	row := q.db.QueryRow(ctx, updateSubscriptionStatus, id, status)
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.CustomerID, &s.PriceID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
