package service

import (
	"context"
	"strconv"

	"github.com/rentkit/payflow/internal/alert"
	"github.com/rentkit/payflow/internal/amazonpay"
	chargedomain "github.com/rentkit/payflow/internal/charge/domain"
	orderdomain "github.com/rentkit/payflow/internal/order/domain"
	"go.uber.org/zap"
)

// compensation describes how to unwind a failed fulfillment attempt.
type compensation struct {
	// reason is recorded on the canceled order items.
	reason string
	// skipRemote leaves the processor side untouched. Set after a
	// capture-change failure, where the hold must stay for operator
	// follow-up rather than being silently released.
	skipRemote bool
}

// compensate unwinds the processor side where safe, then drives the order
// to its canceled business state. It never returns an error: the original
// saga error is what propagates, compensation failures surface as alerts.
func (s *Service) compensate(ctx context.Context, order *orderdomain.Order, charge *chargedomain.ChargeRecord, c compensation) {
	var refundAmount int64
	if !c.skipRemote {
		refundAmount = s.cancelRemote(ctx, order, charge)
	}
	s.handleFailed(ctx, order, charge, c.reason, refundAmount)
}

// cancelRemote undoes whatever the processor already holds for this
// charge, deciding by the processor's current view rather than local
// state: an authorized hold is canceled, a captured amount is refunded,
// anything already canceled, declined or merely initiated is left alone.
// Returns the amount being returned to the buyer.
func (s *Service) cancelRemote(ctx context.Context, order *orderdomain.Order, charge *chargedomain.ChargeRecord) int64 {
	fresh, err := s.charges.FindByID(ctx, s.db, charge.ID)
	if err != nil || fresh == nil || fresh.ProcessorChargeID == "" {
		return 0
	}
	remote, err := s.gateway.GetCharge(ctx, fresh.ProcessorChargeID)
	if err != nil {
		s.alerts.Notify(ctx, alert.Event{
			Kind:     alert.KindCancelFailed,
			Message:  "could not read processor charge state during compensation",
			OrderID:  order.ID,
			ChargeID: fresh.ID,
			Err:      err,
		})
		return 0
	}

	switch remote.StatusDetails.State {
	case amazonpay.ChargeStateAuthorized:
		req := &amazonpay.CancelChargeRequest{CancellationReason: "order fulfillment failed"}
		if _, err := s.gateway.CancelCharge(ctx, fresh.ProcessorChargeID, req, amazonpay.NewIdempotencyKey()); err != nil {
			s.alerts.Notify(ctx, alert.Event{
				Kind:     alert.KindCancelFailed,
				Message:  "compensating cancel failed; authorization still held",
				OrderID:  order.ID,
				ChargeID: fresh.ID,
				Err:      err,
			})
			return 0
		}
		if _, err := s.charges.Transition(ctx, s.db, fresh.ID, chargedomain.StatusCanceled, s.clock.Now()); err != nil {
			s.log.Error("canceled transition failed after compensating cancel",
				zap.String("charge_id", fresh.ID.String()), zap.Error(err))
		}
		return 0

	case amazonpay.ChargeStateCaptured:
		refundAmount := capturedAmount(remote, order)
		if refundAmount <= 0 {
			return 0
		}
		req := &amazonpay.CreateRefundRequest{
			ChargeID:     fresh.ProcessorChargeID,
			RefundAmount: amount(refundAmount, order.Currency),
		}
		refund, err := s.gateway.CreateRefund(ctx, req, amazonpay.NewIdempotencyKey())
		if err != nil {
			s.alerts.Notify(ctx, alert.Event{
				Kind:     alert.KindRefundFailed,
				Message:  "compensating refund failed; captured funds not returned",
				OrderID:  order.ID,
				ChargeID: fresh.ID,
				Err:      err,
			})
			return 0
		}
		if _, err := s.charges.MarkRefundInitiated(ctx, s.db, fresh.ID, refund.RefundID, s.clock.Now()); err != nil {
			s.log.Error("refund_initiated transition failed after compensating refund",
				zap.String("charge_id", fresh.ID.String()), zap.Error(err))
		}
		return refundAmount

	default:
		return 0
	}
}

// handleFailed drives the order to its canceled business state. Each step
// runs regardless of the previous one; failures surface as alerts.
func (s *Service) handleFailed(ctx context.Context, order *orderdomain.Order, charge *chargedomain.ChargeRecord, reason string, refundAmount int64) {
	now := s.clock.Now()

	if err := s.orders.CancelItems(ctx, s.db, order.ID, reason, now); err != nil {
		s.notifyOrderCancelFailure(ctx, order, "cancel order items", err)
	}
	if err := s.orders.MarkOrderCanceled(ctx, s.db, order.ID, refundAmount, now); err != nil {
		s.notifyOrderCancelFailure(ctx, order, "mark order canceled", err)
	}
	if order.Subscription {
		if err := s.orders.ClearSubscriptionRenewal(ctx, s.db, order.ID, now); err != nil {
			s.notifyOrderCancelFailure(ctx, order, "clear subscription renewal", err)
		}
		if err := s.orders.RecordSubscriptionRefund(ctx, s.db, order.ID, refundAmount, now); err != nil {
			s.notifyOrderCancelFailure(ctx, order, "record subscription refund", err)
		}
	}
	if err := s.stock.Recompute(ctx, s.db, order.ID); err != nil {
		s.notifyOrderCancelFailure(ctx, order, "recompute stock", err)
	}
	if err := s.orders.ClearCheckoutSession(ctx, s.db, order.ID, now); err != nil {
		s.notifyOrderCancelFailure(ctx, order, "clear checkout session", err)
	}

	// no-op unless the charge reached authorized
	if _, err := s.charges.Transition(ctx, s.db, charge.ID, chargedomain.StatusCaptureDeclined, now); err != nil {
		s.log.Error("capture_declined transition failed",
			zap.String("charge_id", charge.ID.String()), zap.Error(err))
	}
}

func (s *Service) notifyOrderCancelFailure(ctx context.Context, order *orderdomain.Order, step string, err error) {
	s.alerts.Notify(ctx, alert.Event{
		Kind:    alert.KindOrderCancelFailed,
		Message: step + " failed while canceling order",
		OrderID: order.ID,
		Err:     err,
	})
}

// capturedAmount reads the refundable amount from the processor's charge,
// falling back to the order's payment amount.
func capturedAmount(remote *amazonpay.Charge, order *orderdomain.Order) int64 {
	if remote.CaptureAmount != nil {
		if v, err := strconv.ParseInt(remote.CaptureAmount.Amount, 10, 64); err == nil {
			return v
		}
	}
	return order.PaymentAmount
}
