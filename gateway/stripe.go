package gateway

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// StripeClient implements Client against the Stripe API. The API key
// is injected at construction; no process-wide stripe.Key is set.
type StripeClient struct {
	api *client.API
}

func NewStripeClient(apiKey string) (*StripeClient, error) {
	if apiKey == "" {
		return nil, errors.New("stripe: api key is required")
	}
	return &StripeClient{api: client.New(apiKey, nil)}, nil
}

func (s *StripeClient) CreateIntent(amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create intent: %w", err)
	}
	return fromStripeIntent(intent), nil
}

func (s *StripeClient) RetrieveIntent(id string) (*Intent, error) {
	intent, err := s.api.PaymentIntents.Get(id, nil)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("stripe: retrieve intent: %w", err)
	}
	return fromStripeIntent(intent), nil
}

func (s *StripeClient) CreateRefund(intentID string, amountMinor int64, reason string) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amountMinor),
	}
	if reason != "" {
		params.Reason = stripe.String(reason)
	}

	refund, err := s.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create refund: %w", err)
	}
	return &Refund{ID: refund.ID, Status: string(refund.Status)}, nil
}

func fromStripeIntent(intent *stripe.PaymentIntent) *Intent {
	out := &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}
	if intent.LastPaymentError != nil {
		out.FailureMessage = intent.LastPaymentError.Msg
	}
	return out
}
