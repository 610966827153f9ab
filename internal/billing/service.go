package billing

import (
	"context"
	"errors"

	"github.com/sheikharifulislam/OpnForm/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (Subscription, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (Subscription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Subscription, error)
}

// Gateway is the payment provider surface the service depends on. The real
// provider API stays behind this boundary.
type Gateway interface {
	CheckoutURL(ctx context.Context, customerEmail string, priceID string, successURL string, cancelURL string) (string, error)
	BillingPortalURL(ctx context.Context, customerID string, returnURL string) (string, error)
}

type Service struct {
	logger  *zap.Logger
	queries Querier
	catalog Catalog
	gateway Gateway
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db internal.DBTX, catalog Catalog, gateway Gateway) *Service {
	return &Service{
		logger:  logger,
		queries: New(db),
		catalog: catalog,
		gateway: gateway,
		tracer:  otel.Tracer("billing/service"),
	}
}

// CurrentSubscription returns the user's active subscription. A past due
// subscription is surfaced as its own error so callers can prompt for updated
// billing details instead of a fresh checkout.
func (s *Service) CurrentSubscription(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "CurrentSubscription")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	sub, err := s.queries.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, internal.ErrNotSubscribed
		}
		err = databaseutil.WrapDBError(err, logger, "get subscription by user id")
		span.RecordError(err)
		return Subscription{}, err
	}

	switch sub.Status {
	case StatusActive:
		return sub, nil
	case StatusPastDue:
		return Subscription{}, internal.ErrPastDueSubscription
	default:
		return Subscription{}, internal.ErrNotSubscribed
	}
}

// Interval resolves the billing interval of the user's subscription from its
// stored price id.
func (s *Service) Interval(ctx context.Context, userID uuid.UUID) (Interval, error) {
	sub, err := s.CurrentSubscription(ctx, userID)
	if err != nil {
		return "", err
	}

	interval, ok := s.catalog.IntervalForPrice(sub.PriceID)
	if !ok {
		return "", internal.ErrUnknownPlan
	}
	return interval, nil
}

// StartCheckout builds a provider checkout URL for the requested interval. A
// user with a past due subscription must settle it first.
func (s *Service) StartCheckout(ctx context.Context, userID uuid.UUID, email string, interval Interval, successURL, cancelURL string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "StartCheckout")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	_, err := s.CurrentSubscription(ctx, userID)
	if err == nil {
		return "", internal.ErrAlreadySubscribed
	}
	if errors.Is(err, internal.ErrPastDueSubscription) {
		return "", err
	}
	if !errors.Is(err, internal.ErrNotSubscribed) {
		span.RecordError(err)
		return "", err
	}

	priceID, err := s.catalog.PriceID(interval)
	if err != nil {
		return "", err
	}

	checkoutURL, err := s.gateway.CheckoutURL(ctx, email, priceID, successURL, cancelURL)
	if err != nil {
		logger.Error("failed to create checkout session",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("price_id", priceID))
		span.RecordError(err)
		return "", err
	}

	return checkoutURL, nil
}

// BillingPortal builds a provider billing portal URL for an existing customer.
func (s *Service) BillingPortal(ctx context.Context, userID uuid.UUID, returnURL string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "BillingPortal")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	sub, err := s.queries.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", internal.ErrNotSubscribed
		}
		err = databaseutil.WrapDBError(err, logger, "get subscription by user id")
		span.RecordError(err)
		return "", err
	}

	portalURL, err := s.gateway.BillingPortalURL(ctx, sub.CustomerID, returnURL)
	if err != nil {
		logger.Error("failed to create billing portal session",
			zap.Error(err),
			zap.String("customer_id", sub.CustomerID))
		span.RecordError(err)
		return "", err
	}

	return portalURL, nil
}

// RecordSubscription stores a subscription reported back by the provider.
func (s *Service) RecordSubscription(ctx context.Context, arg CreateParams) (Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "RecordSubscription")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	sub, err := s.queries.Create(ctx, arg)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create subscription")
		span.RecordError(err)
		return Subscription{}, err
	}

	logger.Info("subscription recorded",
		zap.String("user_id", sub.UserID.String()),
		zap.String("price_id", sub.PriceID),
		zap.String("status", string(sub.Status)))

	return sub, nil
}
