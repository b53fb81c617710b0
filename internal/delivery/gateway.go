// Package delivery sends issued coupons to customers over WhatsApp, either
// directly through a messaging provider or mediated by the ERP.
package delivery

import "context"

// Message carries everything a gateway needs to deliver a coupon.
type Message struct {
	PhoneLocal   string
	CouponCode   string
	CustomerName string
	StaffName    string
	Branch       string
}

// Outcome is the checked result of a delivery attempt. Gateways never
// return Go errors for provider failures; the failure is captured here so
// the caller can persist it without failing the request.
type Outcome struct {
	Success   bool
	MessageID string
	Error     string
}

// Gateway delivers a coupon message to a customer.
type Gateway interface {
	Send(ctx context.Context, msg Message) Outcome
}

func failure(err error) Outcome {
	return Outcome{Success: false, Error: err.Error()}
}
