package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// TimeoutResult is the tri-state outcome of a timeout auto-cancel run.
// Errors are reported separately.
type TimeoutResult string

const (
	TimeoutSkipped  TimeoutResult = "skipped"
	TimeoutCanceled TimeoutResult = "canceled"
)

type Service interface {
	// PrepareSession attaches an open processor session to the order,
	// pushes the payment intent to the processor, and creates the pending
	// charge record with its timeout deadline.
	PrepareSession(ctx context.Context, orderID snowflake.ID, checkoutSessionID string) error

	// CompleteCallback runs the fulfillment saga after the buyer completed
	// the external checkout.
	CompleteCallback(ctx context.Context, orderID snowflake.ID) error

	// FulfillImmediate is the order-creation-with-immediate-payment entry
	// point: prepare plus the saga core in one call.
	FulfillImmediate(ctx context.Context, orderID snowflake.ID, checkoutSessionID string) error

	// TimeoutAutoCancel gives up on an order whose authorization window
	// expired unconsumed. Safe to run redundantly; a settled charge is
	// skipped.
	TimeoutAutoCancel(ctx context.Context, orderID snowflake.ID) (TimeoutResult, error)
}
