package billing

import (
	"context"
	"net/url"
)

// HostedPageGateway builds provider hosted page URLs from a configured base.
// It covers deployments using payment links; a full provider SDK client can
// replace it behind the same Gateway interface.
type HostedPageGateway struct {
	checkoutBase string
	portalBase   string
}

func NewHostedPageGateway(checkoutBase, portalBase string) *HostedPageGateway {
	return &HostedPageGateway{
		checkoutBase: checkoutBase,
		portalBase:   portalBase,
	}
}

func (g *HostedPageGateway) CheckoutURL(_ context.Context, customerEmail string, priceID string, successURL string, cancelURL string) (string, error) {
	query := url.Values{}
	query.Set("prefilled_email", customerEmail)
	query.Set("price", priceID)
	query.Set("success_url", successURL)
	query.Set("cancel_url", cancelURL)
	return g.checkoutBase + "?" + query.Encode(), nil
}

func (g *HostedPageGateway) BillingPortalURL(_ context.Context, customerID string, returnURL string) (string, error) {
	query := url.Values{}
	query.Set("customer", customerID)
	query.Set("return_url", returnURL)
	return g.portalBase + "?" + query.Encode(), nil
}
