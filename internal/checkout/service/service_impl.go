package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/rentkit/payflow/internal/alert"
	"github.com/rentkit/payflow/internal/amazonpay"
	chargedomain "github.com/rentkit/payflow/internal/charge/domain"
	"github.com/rentkit/payflow/internal/checkout/domain"
	"github.com/rentkit/payflow/internal/clock"
	"github.com/rentkit/payflow/internal/config"
	identitydomain "github.com/rentkit/payflow/internal/identity/domain"
	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	orderdomain "github.com/rentkit/payflow/internal/order/domain"
	"github.com/rentkit/payflow/internal/orderlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Cfg        config.Config
	Gateway    domain.Gateway
	Locker     orderlock.Locker
	Charges    chargedomain.Repository
	Orders     orderdomain.Repository
	Identity   identitydomain.Service
	Stock      orderdomain.StockRecomputer
	Alerts     alert.Notifier
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.CheckoutConfig
	gateway    domain.Gateway
	locker     orderlock.Locker
	charges    chargedomain.Repository
	orders     orderdomain.Repository
	identity   identitydomain.Service
	stock      orderdomain.StockRecomputer
	alerts     alert.Notifier
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("checkout.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Cfg.Checkout,
		gateway:    p.Gateway,
		locker:     p.Locker,
		charges:    p.Charges,
		orders:     p.Orders,
		identity:   p.Identity,
		stock:      p.Stock,
		alerts:     p.Alerts,
		obsMetrics: p.ObsMetrics,
	}
}

// sagaContext is the state both precondition checks load.
type sagaContext struct {
	order  *orderdomain.Order
	charge *chargedomain.ChargeRecord
}

// loadContext validates the saga preconditions. It runs twice per
// callback: once optimistically, once again under the order lock.
func (s *Service) loadContext(ctx context.Context, orderID snowflake.ID) (*sagaContext, error) {
	order, err := s.orders.FindOrder(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	vendor, err := s.orders.FindVendor(ctx, s.db, order.VendorID)
	if err != nil {
		return nil, err
	}
	if vendor == nil || vendor.Status != orderdomain.VendorStatusActive {
		return nil, domain.ErrVendorInactive
	}
	if !vendor.Eligible() {
		return nil, domain.ErrVendorNotEligible
	}
	if order.CheckoutSessionID == nil || *order.CheckoutSessionID == "" {
		return nil, domain.ErrSessionMissing
	}
	if order.AuthorizationAmount <= 0 && order.PaymentAmount <= 0 {
		return nil, domain.ErrNothingToCharge
	}
	items, err := s.orders.ListItems(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Status != orderdomain.ItemStatusInitial {
			return nil, domain.ErrItemsNotInitial
		}
	}
	charge, err := s.charges.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, domain.ErrChargeNotFound
	}
	if charge.Status != chargedomain.StatusPending {
		return nil, domain.ErrChargeNotPending
	}
	return &sagaContext{order: order, charge: charge}, nil
}

func (s *Service) PrepareSession(ctx context.Context, orderID snowflake.ID, checkoutSessionID string) error {
	order, err := s.orders.FindOrder(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	vendor, err := s.orders.FindVendor(ctx, s.db, order.VendorID)
	if err != nil {
		return err
	}
	if vendor == nil || vendor.Status != orderdomain.VendorStatusActive {
		return domain.ErrVendorInactive
	}
	if !vendor.Eligible() {
		return domain.ErrVendorNotEligible
	}

	authAmount := max0(order.AuthorizationAmount)
	var intent string
	var chargeAmount int64
	switch {
	case authAmount > 0:
		intent = amazonpay.PaymentIntentAuthorize
		chargeAmount = authAmount
	case order.PaymentAmount > 0:
		intent = amazonpay.PaymentIntentAuthorizeWithCapture
		chargeAmount = order.PaymentAmount
	default:
		return domain.ErrNothingToCharge
	}

	session, err := s.gateway.UpdateCheckoutSession(ctx, checkoutSessionID, &amazonpay.UpdateCheckoutSessionRequest{
		PaymentDetails: &amazonpay.PaymentDetails{
			PaymentIntent: intent,
			ChargeAmount:  amountPtr(chargeAmount, order.Currency),
		},
	})
	if err != nil {
		return err
	}
	if session.StatusDetails.State != amazonpay.CheckoutSessionStateOpen {
		return domain.ErrSessionNotOpen
	}

	now := s.clock.Now()
	due := now.Add(s.cfg.SessionValidity + s.cfg.CancelMargin)
	return s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.charges.FindByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if existing == nil || existing.Status.Settled() {
			rec := &chargedomain.ChargeRecord{
				ID:          s.genID.Generate(),
				OrderID:     orderID,
				Status:      chargedomain.StatusPending,
				Amount:      order.PaymentAmount,
				Currency:    order.Currency,
				CancelDueAt: &due,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.charges.Insert(ctx, tx, rec); err != nil {
				return err
			}
		}
		return s.orders.AttachCheckoutSession(ctx, tx, orderID, checkoutSessionID, now)
	})
}

func (s *Service) CompleteCallback(ctx context.Context, orderID snowflake.ID) error {
	// optimistic check keeps rejected requests off the lock
	if _, err := s.loadContext(ctx, orderID); err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, orderID)
	if err != nil {
		return err
	}
	defer release()

	// second check, identical to the first: the race window between the
	// optimistic check and the lock is closed here
	sc, err := s.loadContext(ctx, orderID)
	if err != nil {
		return err
	}
	return s.fulfill(ctx, sc)
}

func (s *Service) FulfillImmediate(ctx context.Context, orderID snowflake.ID, checkoutSessionID string) error {
	if err := s.PrepareSession(ctx, orderID, checkoutSessionID); err != nil {
		return err
	}
	return s.CompleteCallback(ctx, orderID)
}

// fulfill runs the saga core under the order lock. Every failure past the
// first gateway call compensates before returning.
func (s *Service) fulfill(ctx context.Context, sc *sagaContext) error {
	order, charge := sc.order, sc.charge
	sessionID := *order.CheckoutSessionID
	authAmount := max0(order.AuthorizationAmount)

	var permissionID, processorChargeID string

	if authAmount > 0 {
		session, err := s.completeSession(ctx, sessionID, authAmount, order, charge)
		if err != nil {
			return err
		}
		permissionID, processorChargeID = session.ChargePermissionID, session.ChargeID

		if _, err := s.charges.MarkAuthorized(ctx, s.db, charge.ID, permissionID, processorChargeID, s.clock.Now()); err != nil {
			s.compensate(ctx, order, charge, compensation{reason: orderdomain.CancelReasonAPIFailure})
			return err
		}

		if order.PaymentAmount > 0 {
			req := &amazonpay.CaptureChargeRequest{CaptureAmount: amount(order.PaymentAmount, order.Currency)}
			if _, err := s.gateway.CaptureCharge(ctx, processorChargeID, req, amazonpay.NewIdempotencyKey()); err != nil {
				// funds are held but unreconciled; alert for operator
				// follow-up instead of silently canceling the hold
				s.alerts.Notify(ctx, alert.Event{
					Kind:     alert.KindCaptureChangeFailed,
					Message:  "capture after authorization failed; funds held",
					OrderID:  order.ID,
					ChargeID: charge.ID,
					Err:      err,
				})
				s.compensate(ctx, order, charge, compensation{reason: orderdomain.CancelReasonAPIFailure, skipRemote: true})
				s.recordSaga("capture_change_failed")
				return err
			}
			if _, err := s.charges.Transition(ctx, s.db, charge.ID, chargedomain.StatusCaptured, s.clock.Now()); err != nil {
				s.compensate(ctx, order, charge, compensation{reason: orderdomain.CancelReasonAPIFailure})
				return err
			}
		} else {
			// authorization-only order: release the hold
			req := &amazonpay.CancelChargeRequest{CancellationReason: "no capture due"}
			if _, err := s.gateway.CancelCharge(ctx, processorChargeID, req, amazonpay.NewIdempotencyKey()); err != nil {
				s.compensate(ctx, order, charge, compensation{reason: orderdomain.CancelReasonAPIFailure})
				return err
			}
			now := s.clock.Now()
			if _, err := s.charges.Transition(ctx, s.db, charge.ID, chargedomain.StatusCanceled, now); err != nil {
				return err
			}
			s.linkBuyer(ctx, order, permissionID)
			if err := s.orders.ClearCheckoutSession(ctx, s.db, order.ID, now); err != nil {
				return err
			}
			s.recordSaga("canceled")
			return nil
		}
	} else {
		// no hold requested: authorize and capture in one processor call
		session, err := s.completeSession(ctx, sessionID, order.PaymentAmount, order, charge)
		if err != nil {
			return err
		}
		permissionID, processorChargeID = session.ChargePermissionID, session.ChargeID
		if _, err := s.charges.MarkCaptured(ctx, s.db, charge.ID, permissionID, processorChargeID, s.clock.Now()); err != nil {
			s.compensate(ctx, order, charge, compensation{reason: orderdomain.CancelReasonAPIFailure})
			return err
		}
	}

	if err := s.persistPayment(ctx, order, charge); err != nil {
		s.compensate(ctx, order, charge, compensation{reason: orderdomain.CancelReasonAPIFailure})
		return err
	}

	s.linkBuyer(ctx, order, permissionID)

	if err := s.orders.ClearCheckoutSession(ctx, s.db, order.ID, s.clock.Now()); err != nil {
		return err
	}
	s.recordSaga("captured")
	return nil
}

func (s *Service) completeSession(ctx context.Context, sessionID string, chargeAmount int64, order *orderdomain.Order, charge *chargedomain.ChargeRecord) (*amazonpay.CheckoutSession, error) {
	req := &amazonpay.CompleteCheckoutSessionRequest{ChargeAmount: amount(chargeAmount, order.Currency)}
	session, err := s.gateway.CompleteCheckoutSession(ctx, sessionID, req, amazonpay.NewIdempotencyKey())
	if err != nil {
		s.compensate(ctx, order, charge, compensation{reason: orderdomain.CancelReasonAPIFailure})
		return nil, err
	}
	if session.StatusDetails.State != amazonpay.CheckoutSessionStateCompleted {
		err := fmt.Errorf("checkout: session %s ended %s", sessionID, session.StatusDetails.State)
		s.compensate(ctx, order, charge, compensation{reason: orderdomain.CancelReasonAPIFailure})
		return nil, err
	}
	return session, nil
}

func (s *Service) persistPayment(ctx context.Context, order *orderdomain.Order, charge *chargedomain.ChargeRecord) error {
	now := s.clock.Now()
	payment := &orderdomain.Payment{
		ID:        s.genID.Generate(),
		OrderID:   order.ID,
		Amount:    order.PaymentAmount,
		Currency:  order.Currency,
		Method:    orderdomain.PaymentMethodAmazonPay,
		PaidAt:    now,
		CreatedAt: now,
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orders.InsertPayment(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.charges.LinkPayment(ctx, tx, charge.ID, payment.ID, now); err != nil {
			return err
		}
		if order.Subscription {
			first, err := s.orders.FindFirstSubscriptionCharge(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			if first != nil {
				return s.orders.LinkSubscriptionPayment(ctx, tx, first.ID, payment.ID, now)
			}
		}
		return nil
	})
}

// linkBuyer binds the processor buyer to the local user. It runs after
// money has settled, so failures are alerted, never escalated.
func (s *Service) linkBuyer(ctx context.Context, order *orderdomain.Order, permissionID string) {
	if permissionID == "" {
		return
	}
	perm, err := s.gateway.GetChargePermission(ctx, permissionID)
	if err != nil || perm.Buyer == nil || perm.Buyer.BuyerID == "" {
		s.log.Warn("buyer lookup failed after settlement",
			zap.String("order_id", order.ID.String()),
			zap.String("charge_permission_id", permissionID),
			zap.Error(err),
		)
		return
	}
	if err := s.identity.LinkBuyer(ctx, s.db, order.UserID, perm.Buyer.BuyerID); err != nil {
		s.alerts.Notify(ctx, alert.Event{
			Kind:    alert.KindBuyerLinkConflict,
			Message: "buyer id could not be linked to the paying user",
			OrderID: order.ID,
			Err:     err,
		})
	}
}

func (s *Service) TimeoutAutoCancel(ctx context.Context, orderID snowflake.ID) (domain.TimeoutResult, error) {
	charge, err := s.charges.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return "", err
	}
	if charge == nil || charge.Status.Settled() {
		return domain.TimeoutSkipped, nil
	}
	order, err := s.orders.FindOrder(ctx, s.db, orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", domain.ErrOrderNotFound
	}
	if err := s.validateCancelable(ctx, order); err != nil {
		return "", err
	}

	release, err := s.locker.Acquire(ctx, orderID)
	if err != nil {
		return "", err
	}
	defer release()

	// the callback may have raced us between the check and the lock
	charge, err = s.charges.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return "", err
	}
	if charge == nil || charge.Status.Settled() {
		return domain.TimeoutSkipped, nil
	}
	if err := s.validateCancelable(ctx, order); err != nil {
		return "", err
	}

	// no gateway call here: an unconsumed authorization window is voided
	// by the processor itself once the session expires. The full order
	// price is recorded as the refund owed back to the buyer.
	s.handleFailed(ctx, order, charge, orderdomain.CancelReasonTimeout, order.Price)
	return domain.TimeoutCanceled, nil
}

// validateCancelable is the subset of the callback preconditions that
// still applies to an expired order. Like the callback checks it runs on
// both sides of the order lock; an order that fails it is left for the
// operator instead of being auto-canceled.
func (s *Service) validateCancelable(ctx context.Context, order *orderdomain.Order) error {
	vendor, err := s.orders.FindVendor(ctx, s.db, order.VendorID)
	if err != nil {
		return err
	}
	if vendor == nil || vendor.Status != orderdomain.VendorStatusActive {
		return domain.ErrVendorInactive
	}
	if !vendor.Eligible() {
		return domain.ErrVendorNotEligible
	}
	items, err := s.orders.ListItems(ctx, s.db, order.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Status != orderdomain.ItemStatusInitial {
			return domain.ErrItemsNotInitial
		}
	}
	return nil
}

func (s *Service) recordSaga(result string) {
	s.obsMetrics.RecordSagaResult(result)
}

func max0(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func amount(v int64, currency string) amazonpay.Amount {
	return amazonpay.Amount{Amount: strconv.FormatInt(v, 10), CurrencyCode: currency}
}

func amountPtr(v int64, currency string) *amazonpay.Amount {
	a := amount(v, currency)
	return &a
}
