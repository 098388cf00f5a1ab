package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ErrMissingChargePermission rejects an authorized transition attempted
// before the processor reported a charge permission id.
var ErrMissingChargePermission = errors.New("charge: authorized requires a charge permission id")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rec *ChargeRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ChargeRecord, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*ChargeRecord, error)
	FindByPermissionAndRefund(ctx context.Context, db *gorm.DB, chargePermissionID, refundID string) (*ChargeRecord, error)

	// Transition moves the charge into target if its current status is a
	// valid predecessor, stamping the per-state timestamp once. It reports
	// false, nil when the charge was not in a predecessor state.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, target Status, now time.Time) (bool, error)

	// MarkAuthorized is the authorized transition plus recording of the
	// processor correlation ids learned from the completed session.
	MarkAuthorized(ctx context.Context, db *gorm.DB, id snowflake.ID, chargePermissionID, processorChargeID string, now time.Time) (bool, error)

	// MarkCaptured is the captured transition plus recording of the
	// processor correlation ids, for the authorize-with-capture path where
	// the charge settles without passing through authorized.
	MarkCaptured(ctx context.Context, db *gorm.DB, id snowflake.ID, chargePermissionID, processorChargeID string, now time.Time) (bool, error)

	// MarkRefundInitiated is the refund_initiated transition plus recording
	// of the refund correlation id.
	MarkRefundInitiated(ctx context.Context, db *gorm.DB, id snowflake.ID, refundID string, now time.Time) (bool, error)

	LinkPayment(ctx context.Context, db *gorm.DB, id, paymentID snowflake.ID, now time.Time) error

	// ListCancelDue returns pending charges whose timeout deadline has
	// passed. ClearCancelDue claims one; it reports false when another
	// worker already claimed it.
	ListCancelDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*ChargeRecord, error)
	ClearCancelDue(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
}
