// Package gateway abstracts the payment gateway behind a narrow client
// interface so the payment controllers never touch gateway globals and
// tests can swap in a fake.
package gateway

import "errors"

// ErrIntentNotFound reports that the gateway no longer knows the
// intent; the local payment record should be discarded and recreated.
var ErrIntentNotFound = errors.New("gateway: payment intent not found")

// Intent mirrors the gateway-side payment intent fields the core needs.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	// FailureMessage carries the gateway's last error, if any.
	FailureMessage string
}

// Refund mirrors the gateway-side refund result.
type Refund struct {
	ID     string
	Status string
}

// Actionable reports whether a payer can still complete this intent.
func (i *Intent) Actionable() bool {
	switch i.Status {
	case "requires_payment_method", "requires_confirmation", "requires_action":
		return true
	}
	return false
}

// Client is the gateway operation surface the payment core consumes.
type Client interface {
	// CreateIntent registers a new payment intent for the given amount
	// in minor currency units.
	CreateIntent(amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	// RetrieveIntent loads the current gateway-side state of an intent.
	RetrieveIntent(id string) (*Intent, error)
	// CreateRefund refunds amountMinor against a captured intent.
	CreateRefund(intentID string, amountMinor int64, reason string) (*Refund, error)
}
