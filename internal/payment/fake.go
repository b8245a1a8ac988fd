// Package payment provides the payment gateway used by order capture.
//
// The platform runs against a simulated gateway: it issues intents with
// locally generated references and always authorizes. Swapping in a real
// provider means implementing order.Gateway against its SDK.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/order"
	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

// FakeGateway authorizes every well-formed intent.
type FakeGateway struct{}

var _ order.Gateway = FakeGateway{}

func NewFakeGateway() FakeGateway { return FakeGateway{} }

func (FakeGateway) CreatePaymentIntent(_ context.Context, amountMinor int64, currency, _ string) (order.PaymentIntent, error) {
	if amountMinor <= 0 {
		return order.PaymentIntent{}, apperr.Invalid("payment amount must be positive")
	}
	if currency == "" {
		return order.PaymentIntent{}, apperr.Invalid("payment currency is required")
	}
	id := uuid.NewString()
	return order.PaymentIntent{
		Reference:    fmt.Sprintf("pi_%s", id),
		ClientSecret: fmt.Sprintf("pi_%s_secret_%s", id, uuid.NewString()),
	}, nil
}
