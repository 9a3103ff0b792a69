package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/config"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeGateway implements Gateway over Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeGateway creates a gateway from Stripe credentials.
func NewStripeGateway(cfg config.GatewayConfig) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("payment: stripe secret key is required")
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}, nil
}

// CreatePaymentLink creates a hosted checkout session and returns its URL.
func (g *StripeGateway) CreatePaymentLink(ctx context.Context, amountCents int64, description string, metadata map[string]string) (*Link, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyBRL)),
				UnitAmount: stripe.Int64(amountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(description),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperr.External(err, "payment: create checkout session")
	}
	return &Link{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the signature and extracts a settlement event.
// Returns (nil, nil) for event types this service does not consume.
func (g *StripeGateway) ParseWebhook(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return nil, apperr.Validation("payment: invalid webhook signature")
	}
	if ev.Type != "checkout.session.completed" {
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
		return nil, apperr.Validation("payment: malformed checkout session payload")
	}
	budgetID, err := strconv.ParseUint(sess.Metadata["budget_id"], 10, 32)
	if err != nil {
		return nil, apperr.Validation("payment: webhook missing budget_id metadata")
	}
	ptype := sess.Metadata["type"]
	if ptype == "" {
		return nil, apperr.Validation("payment: webhook missing type metadata")
	}

	return &Event{
		ID:        ev.ID,
		BudgetID:  uint(budgetID),
		Type:      ptype,
		Reference: sess.ID,
	}, nil
}
