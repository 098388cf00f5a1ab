package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rentkit/payflow/internal/charge/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rec *domain.ChargeRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO charges (
			id, order_id, payment_id, charge_permission_id, processor_charge_id,
			refund_id, status, amount, currency, cancel_due_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.OrderID,
		rec.PaymentID,
		rec.ChargePermissionID,
		rec.ProcessorChargeID,
		rec.RefundID,
		rec.Status,
		rec.Amount,
		rec.Currency,
		rec.CancelDueAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ChargeRecord, error) {
	var rec domain.ChargeRecord
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM charges WHERE id = ?`, id,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*domain.ChargeRecord, error) {
	var rec domain.ChargeRecord
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM charges WHERE order_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		orderID,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (r *repo) FindByPermissionAndRefund(ctx context.Context, db *gorm.DB, chargePermissionID, refundID string) (*domain.ChargeRecord, error) {
	var rec domain.ChargeRecord
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM charges WHERE charge_permission_id = ? AND refund_id = ? LIMIT 1`,
		chargePermissionID,
		refundID,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

// transition applies the conditional update behind every state change:
// the row moves only if its current status is a predecessor of target,
// so redundant triggers collapse into no-ops at the database level.
// The stamp column name comes from the transition table, never from input.
func (r *repo) transition(ctx context.Context, db *gorm.DB, id snowflake.ID, target domain.Status, now time.Time, extraSet string, extraArgs ...any) (bool, error) {
	preds := domain.Predecessors(target)
	if len(preds) == 0 {
		return false, nil
	}
	query := fmt.Sprintf(
		`UPDATE charges SET status = ?, %s = ?, updated_at = ?%s WHERE id = ? AND status IN ?`,
		domain.StampColumn(target), extraSet,
	)
	args := []any{target, now, now}
	args = append(args, extraArgs...)
	args = append(args, id, preds)
	res := db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, target domain.Status, now time.Time) (bool, error) {
	return r.transition(ctx, db, id, target, now, "")
}

func (r *repo) MarkAuthorized(ctx context.Context, db *gorm.DB, id snowflake.ID, chargePermissionID, processorChargeID string, now time.Time) (bool, error) {
	if chargePermissionID == "" {
		return false, domain.ErrMissingChargePermission
	}
	return r.transition(ctx, db, id, domain.StatusAuthorized, now,
		", charge_permission_id = ?, processor_charge_id = ?",
		chargePermissionID, processorChargeID,
	)
}

func (r *repo) MarkCaptured(ctx context.Context, db *gorm.DB, id snowflake.ID, chargePermissionID, processorChargeID string, now time.Time) (bool, error) {
	return r.transition(ctx, db, id, domain.StatusCaptured, now,
		", charge_permission_id = ?, processor_charge_id = ?",
		chargePermissionID, processorChargeID,
	)
}

func (r *repo) MarkRefundInitiated(ctx context.Context, db *gorm.DB, id snowflake.ID, refundID string, now time.Time) (bool, error) {
	return r.transition(ctx, db, id, domain.StatusRefundInitiated, now,
		", refund_id = ?", refundID,
	)
}

func (r *repo) LinkPayment(ctx context.Context, db *gorm.DB, id, paymentID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE charges SET payment_id = ?, updated_at = ? WHERE id = ?`,
		paymentID, now, id,
	).Error
}

func (r *repo) ListCancelDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*domain.ChargeRecord, error) {
	var recs []*domain.ChargeRecord
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM charges
		 WHERE status = ? AND cancel_due_at IS NOT NULL AND cancel_due_at <= ?
		 ORDER BY cancel_due_at ASC
		 LIMIT ?`,
		domain.StatusPending,
		now,
		limit,
	).Scan(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) ClearCancelDue(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE charges SET cancel_due_at = NULL, updated_at = ? WHERE id = ? AND cancel_due_at IS NOT NULL`,
		now, id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
