package services

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"

	"github.com/gameportal/backend/internal/config"
)

// StripeCheckoutClient opens hosted Checkout Sessions. The processor
// owns the payment form; no card data touches this backend.
type StripeCheckoutClient struct {
	baseURL string
}

func NewStripeCheckoutClient(cfg config.StripeConfig) *StripeCheckoutClient {
	stripe.Key = cfg.SecretKey
	return &StripeCheckoutClient{baseURL: cfg.BaseURL}
}

func (c *StripeCheckoutClient) CreateSession(ctx context.Context, p CheckoutParams) (*CheckoutRedirect, error) {
	name, description := stripeDescription(p)

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(name),
						Description: stripe.String(description),
					},
					UnitAmount: stripe.Int64(p.Package.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.baseURL + "/user/donate/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.baseURL + "/user/donate?canceled=true"),
	}
	params.Context = ctx
	for key, value := range checkoutMetadata(p) {
		params.AddMetadata(key, value)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}

	return &CheckoutRedirect{SessionID: sess.ID, URL: sess.URL}, nil
}
