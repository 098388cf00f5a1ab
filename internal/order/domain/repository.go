package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, order *Order) error
	FindOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	AttachCheckoutSession(ctx context.Context, db *gorm.DB, orderID snowflake.ID, sessionID string, now time.Time) error
	ClearCheckoutSession(ctx context.Context, db *gorm.DB, orderID snowflake.ID, now time.Time) error
	MarkOrderCanceled(ctx context.Context, db *gorm.DB, orderID snowflake.ID, refundAmount int64, now time.Time) error

	InsertItem(ctx context.Context, db *gorm.DB, item *OrderItem) error
	ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*OrderItem, error)
	CancelItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID, reason string, now time.Time) error

	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindPayment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)

	InsertSubscriptionCharge(ctx context.Context, db *gorm.DB, sc *SubscriptionCharge) error
	FindFirstSubscriptionCharge(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*SubscriptionCharge, error)
	LinkSubscriptionPayment(ctx context.Context, db *gorm.DB, id, paymentID snowflake.ID, now time.Time) error
	ClearSubscriptionRenewal(ctx context.Context, db *gorm.DB, orderID snowflake.ID, now time.Time) error
	RecordSubscriptionRefund(ctx context.Context, db *gorm.DB, orderID snowflake.ID, refundAmount int64, now time.Time) error

	InsertVendor(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	FindVendor(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vendor, error)
}

// StockRecomputer restores reserved inventory after a cancellation. The
// real implementation lives with the catalog; payments only needs the
// hook.
type StockRecomputer interface {
	Recompute(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
}

// NoopStockRecomputer is the default when no catalog integration is
// configured.
type NoopStockRecomputer struct{}

func (NoopStockRecomputer) Recompute(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return nil
}
