// Package payment handles charge links and webhook-driven settlement.
package payment

import (
	"context"
	"math"
)

// Link is a hosted payment page created by the gateway.
type Link struct {
	ID  string
	URL string
}

// Gateway abstracts the payment provider. Implementations create hosted
// payment pages and report completion asynchronously via webhook events.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, amountCents int64, description string, metadata map[string]string) (*Link, error)
}

// Event is a completed-checkout notification from the gateway.
type Event struct {
	ID        string // gateway event id, the dedupe key
	BudgetID  uint
	Type      string // down_payment or final_payment
	Reference string // gateway's payment/session reference
}

// round2 rounds a currency amount to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Cents converts a currency amount to integer cents for the gateway.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// DownPaymentAmount is always 25% of the final value.
func DownPaymentAmount(finalValue float64) float64 {
	return round2(finalValue * 0.25)
}

// FinalPaymentAmount is the remainder after the down payment.
func FinalPaymentAmount(finalValue float64) float64 {
	return round2(finalValue - DownPaymentAmount(finalValue))
}
