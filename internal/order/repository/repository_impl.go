package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rentkit/payflow/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, user_id, vendor_id, status, price, authorization_amount,
			payment_amount, refund_amount, currency, checkout_session_id,
			subscription, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.UserID,
		order.VendorID,
		order.Status,
		order.Price,
		order.AuthorizationAmount,
		order.PaymentAmount,
		order.RefundAmount,
		order.Currency,
		order.CheckoutSessionID,
		order.Subscription,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE id = ?`, id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) AttachCheckoutSession(ctx context.Context, db *gorm.DB, orderID snowflake.ID, sessionID string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET checkout_session_id = ?, updated_at = ? WHERE id = ?`,
		sessionID, now, orderID,
	).Error
}

func (r *repo) ClearCheckoutSession(ctx context.Context, db *gorm.DB, orderID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET checkout_session_id = NULL, updated_at = ? WHERE id = ?`,
		now, orderID,
	).Error
}

func (r *repo) MarkOrderCanceled(ctx context.Context, db *gorm.DB, orderID snowflake.ID, refundAmount int64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, refund_amount = ?, updated_at = ? WHERE id = ?`,
		domain.OrderStatusCanceled, refundAmount, now, orderID,
	).Error
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.OrderItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_items (id, order_id, product_id, quantity, status, cancel_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.Quantity,
		item.Status,
		item.CancelReason,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*domain.OrderItem, error) {
	var items []*domain.OrderItem
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM order_items WHERE order_id = ? ORDER BY id ASC`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CancelItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID, reason string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE order_items SET status = ?, cancel_reason = ?, updated_at = ?
		 WHERE order_id = ? AND status = ?`,
		domain.ItemStatusCanceled, reason, now, orderID, domain.ItemStatusInitial,
	).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, order_id, amount, currency, method, paid_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.OrderID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.PaidAt,
		payment.CreatedAt,
	).Error
}

func (r *repo) FindPayment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE id = ?`, id,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) InsertSubscriptionCharge(ctx context.Context, db *gorm.DB, sc *domain.SubscriptionCharge) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscription_charges (id, order_id, payment_id, sequence_number, next_charge_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.ID,
		sc.OrderID,
		sc.PaymentID,
		sc.SequenceNumber,
		sc.NextChargeAt,
		sc.CreatedAt,
		sc.UpdatedAt,
	).Error
}

func (r *repo) FindFirstSubscriptionCharge(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*domain.SubscriptionCharge, error) {
	var sc domain.SubscriptionCharge
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscription_charges
		 WHERE order_id = ? AND sequence_number = 1
		 LIMIT 1`,
		orderID,
	).Scan(&sc).Error
	if err != nil {
		return nil, err
	}
	if sc.ID == 0 {
		return nil, nil
	}
	return &sc, nil
}

func (r *repo) LinkSubscriptionPayment(ctx context.Context, db *gorm.DB, id, paymentID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscription_charges SET payment_id = ?, updated_at = ? WHERE id = ?`,
		paymentID, now, id,
	).Error
}

// RecordSubscriptionRefund stamps the refund owed on the first scheduled
// charge, mirroring the refund_amount kept on the order row.
func (r *repo) RecordSubscriptionRefund(ctx context.Context, db *gorm.DB, orderID snowflake.ID, refundAmount int64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscription_charges SET refund_amount = ?, updated_at = ?
		 WHERE order_id = ? AND sequence_number = 1`,
		refundAmount, now, orderID,
	).Error
}

func (r *repo) ClearSubscriptionRenewal(ctx context.Context, db *gorm.DB, orderID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscription_charges SET next_charge_at = NULL, updated_at = ?
		 WHERE order_id = ? AND payment_id IS NULL`,
		now, orderID,
	).Error
}

func (r *repo) InsertVendor(ctx context.Context, db *gorm.DB, vendor *domain.Vendor) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO vendors (id, name, status, merchant_approved, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		vendor.ID,
		vendor.Name,
		vendor.Status,
		vendor.MerchantApproved,
		vendor.CreatedAt,
		vendor.UpdatedAt,
	).Error
}

func (r *repo) FindVendor(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Vendor, error) {
	var vendor domain.Vendor
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM vendors WHERE id = ?`, id,
	).Scan(&vendor).Error
	if err != nil {
		return nil, err
	}
	if vendor.ID == 0 {
		return nil, nil
	}
	return &vendor, nil
}
