package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/transfer"
)

// CreateTransfer moves platform funds to a vendor's connected account. The
// returned transfer ID is what later appears on transfer.reversed webhooks.
func (c *Client) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	if c == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if params == nil {
		return nil, errors.New("transfer params are required")
	}
	params.Context = ctx
	return transfer.New(params)
}
