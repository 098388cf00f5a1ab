package domain

import (
	"context"

	"github.com/rentkit/payflow/internal/amazonpay"
)

// Gateway is the slice of the processor client the checkout saga uses.
// *amazonpay.Client satisfies it.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *amazonpay.CreateCheckoutSessionRequest, key amazonpay.IdempotencyKey) (*amazonpay.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, checkoutSessionID string) (*amazonpay.CheckoutSession, error)
	UpdateCheckoutSession(ctx context.Context, checkoutSessionID string, req *amazonpay.UpdateCheckoutSessionRequest) (*amazonpay.CheckoutSession, error)
	CompleteCheckoutSession(ctx context.Context, checkoutSessionID string, req *amazonpay.CompleteCheckoutSessionRequest, key amazonpay.IdempotencyKey) (*amazonpay.CheckoutSession, error)
	GetCharge(ctx context.Context, chargeID string) (*amazonpay.Charge, error)
	CaptureCharge(ctx context.Context, chargeID string, req *amazonpay.CaptureChargeRequest, key amazonpay.IdempotencyKey) (*amazonpay.Charge, error)
	CancelCharge(ctx context.Context, chargeID string, req *amazonpay.CancelChargeRequest, key amazonpay.IdempotencyKey) (*amazonpay.Charge, error)
	CreateRefund(ctx context.Context, req *amazonpay.CreateRefundRequest, key amazonpay.IdempotencyKey) (*amazonpay.Refund, error)
	GetRefund(ctx context.Context, refundID string) (*amazonpay.Refund, error)
	GetChargePermission(ctx context.Context, chargePermissionID string) (*amazonpay.ChargePermission, error)
}
