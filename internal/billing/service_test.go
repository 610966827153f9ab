package billing

import (
	"context"
	"testing"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type stubQuerier struct {
	getByUserIDFunc func(ctx context.Context, userID uuid.UUID) (Subscription, error)
	createFunc      func(ctx context.Context, arg CreateParams) (Subscription, error)
}

func (s *stubQuerier) Create(ctx context.Context, arg CreateParams) (Subscription, error) {
	return s.createFunc(ctx, arg)
}

func (s *stubQuerier) GetByUserID(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	return s.getByUserIDFunc(ctx, userID)
}

func (s *stubQuerier) UpdateStatus(_ context.Context, _ uuid.UUID, _ Status) (Subscription, error) {
	return Subscription{}, nil
}

func testCatalog(t *testing.T) Catalog {
	t.Helper()

	catalog, err := NewCatalog(map[string]config.Pricing{
		"production": {
			ProductID: "prod_123",
			Plans: config.PlanPricing{
				"monthly": "price_monthly",
				"yearly":  "price_yearly",
			},
		},
	}, "production")
	require.NoError(t, err)

	return catalog
}

func newTestService(t *testing.T, queries Querier, gateway Gateway) *Service {
	t.Helper()

	return &Service{
		logger:  zap.NewNop(),
		queries: queries,
		catalog: testCatalog(t),
		gateway: gateway,
		tracer:  otel.Tracer("test"),
	}
}

func TestNewCatalog_UnknownEnvironment(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(map[string]config.Pricing{"production": {}}, "staging")

	require.Error(t, err)
	require.Contains(t, err.Error(), "staging")
}

func TestCatalog_PriceID(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t)

	priceID, err := catalog.PriceID(IntervalMonthly)
	require.NoError(t, err)
	require.Equal(t, "price_monthly", priceID)

	_, err = catalog.PriceID(Interval("weekly"))
	require.ErrorIs(t, err, internal.ErrUnknownPlan)
}

func TestCatalog_IntervalForPrice(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t)

	interval, ok := catalog.IntervalForPrice("price_yearly")
	require.True(t, ok)
	require.Equal(t, IntervalYearly, interval)

	_, ok = catalog.IntervalForPrice("price_retired")
	require.False(t, ok)
}

func TestService_CurrentSubscription(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name        string
		status      Status
		storeErr    error
		expectedErr error
	}

	testCases := []testCase{
		{name: "active subscription", status: StatusActive},
		{name: "past due surfaces its own error", status: StatusPastDue, expectedErr: internal.ErrPastDueSubscription},
		{name: "canceled counts as not subscribed", status: StatusCanceled, expectedErr: internal.ErrNotSubscribed},
		{name: "no row counts as not subscribed", storeErr: pgx.ErrNoRows, expectedErr: internal.ErrNotSubscribed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(t, &stubQuerier{
				getByUserIDFunc: func(_ context.Context, _ uuid.UUID) (Subscription, error) {
					if tc.storeErr != nil {
						return Subscription{}, tc.storeErr
					}
					return Subscription{Status: tc.status}, nil
				},
			}, NewHostedPageGateway("https://pay.example.com/checkout", "https://pay.example.com/portal"))

			sub, err := svc.CurrentSubscription(context.Background(), uuid.New())

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, StatusActive, sub.Status)
		})
	}
}

func TestService_Interval(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubQuerier{
		getByUserIDFunc: func(_ context.Context, _ uuid.UUID) (Subscription, error) {
			return Subscription{Status: StatusActive, PriceID: "price_monthly"}, nil
		},
	}, NewHostedPageGateway("https://pay.example.com/checkout", "https://pay.example.com/portal"))

	interval, err := svc.Interval(context.Background(), uuid.New())

	require.NoError(t, err)
	require.Equal(t, IntervalMonthly, interval)
}

func TestService_IntervalUnknownPrice(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubQuerier{
		getByUserIDFunc: func(_ context.Context, _ uuid.UUID) (Subscription, error) {
			return Subscription{Status: StatusActive, PriceID: "price_retired"}, nil
		},
	}, NewHostedPageGateway("https://pay.example.com/checkout", "https://pay.example.com/portal"))

	_, err := svc.Interval(context.Background(), uuid.New())

	require.ErrorIs(t, err, internal.ErrUnknownPlan)
}

func TestService_StartCheckout(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name        string
		status      Status
		storeErr    error
		interval    Interval
		expectedErr error
	}

	testCases := []testCase{
		{name: "no subscription checks out", storeErr: pgx.ErrNoRows, interval: IntervalMonthly},
		{name: "canceled subscription checks out again", status: StatusCanceled, interval: IntervalYearly},
		{name: "active subscription is rejected", status: StatusActive, interval: IntervalMonthly, expectedErr: internal.ErrAlreadySubscribed},
		{name: "past due must settle first", status: StatusPastDue, interval: IntervalMonthly, expectedErr: internal.ErrPastDueSubscription},
		{name: "unknown interval", storeErr: pgx.ErrNoRows, interval: Interval("weekly"), expectedErr: internal.ErrUnknownPlan},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(t, &stubQuerier{
				getByUserIDFunc: func(_ context.Context, _ uuid.UUID) (Subscription, error) {
					if tc.storeErr != nil {
						return Subscription{}, tc.storeErr
					}
					return Subscription{Status: tc.status}, nil
				},
			}, NewHostedPageGateway("https://pay.example.com/checkout", "https://pay.example.com/portal"))

			checkoutURL, err := svc.StartCheckout(context.Background(), uuid.New(), "user@example.com",
				tc.interval, "https://forms.example.com/done", "https://forms.example.com/pricing")

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Contains(t, checkoutURL, "https://pay.example.com/checkout?")
			require.Contains(t, checkoutURL, "prefilled_email=user%40example.com")
		})
	}
}

func TestService_BillingPortal(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubQuerier{
		getByUserIDFunc: func(_ context.Context, _ uuid.UUID) (Subscription, error) {
			return Subscription{Status: StatusActive, CustomerID: "cus_42"}, nil
		},
	}, NewHostedPageGateway("https://pay.example.com/checkout", "https://pay.example.com/portal"))

	portalURL, err := svc.BillingPortal(context.Background(), uuid.New(), "https://forms.example.com/settings")

	require.NoError(t, err)
	require.Contains(t, portalURL, "https://pay.example.com/portal?")
	require.Contains(t, portalURL, "customer=cus_42")
}

func TestService_BillingPortalNotSubscribed(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubQuerier{
		getByUserIDFunc: func(_ context.Context, _ uuid.UUID) (Subscription, error) {
			return Subscription{}, pgx.ErrNoRows
		},
	}, NewHostedPageGateway("https://pay.example.com/checkout", "https://pay.example.com/portal"))

	_, err := svc.BillingPortal(context.Background(), uuid.New(), "https://forms.example.com/settings")

	require.ErrorIs(t, err, internal.ErrNotSubscribed)
}

func TestHostedPageGateway_URLs(t *testing.T) {
	t.Parallel()

	gateway := NewHostedPageGateway("https://pay.example.com/checkout", "https://pay.example.com/portal")

	checkoutURL, err := gateway.CheckoutURL(context.Background(), "user@example.com", "price_monthly",
		"https://forms.example.com/done", "https://forms.example.com/pricing")
	require.NoError(t, err)
	require.Contains(t, checkoutURL, "price=price_monthly")
	require.Contains(t, checkoutURL, "success_url=https%3A%2F%2Fforms.example.com%2Fdone")

	portalURL, err := gateway.BillingPortalURL(context.Background(), "cus_42", "https://forms.example.com/settings")
	require.NoError(t, err)
	require.Contains(t, portalURL, "return_url=https%3A%2F%2Fforms.example.com%2Fsettings")
}
