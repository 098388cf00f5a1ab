package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rentkit/payflow/internal/charge/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.ChargeRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCharge(t *testing.T, db *gorm.DB, r domain.Repository, id snowflake.ID, due *time.Time) *domain.ChargeRecord {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &domain.ChargeRecord{
		ID:          id,
		OrderID:     id + 1000,
		Status:      domain.StatusPending,
		Amount:      1500,
		Currency:    "JPY",
		CancelDueAt: due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Insert(context.Background(), db, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return rec
}

func TestTransitionStampsTimestampOnce(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()
	rec := seedCharge(t, db, r, 1, nil)

	t1 := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	ok, err := r.MarkAuthorized(ctx, db, rec.ID, "P03-123", "S03-123", t1)
	if err != nil || !ok {
		t.Fatalf("MarkAuthorized = %v, %v", ok, err)
	}

	got, err := r.FindByID(ctx, db, rec.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != domain.StatusAuthorized {
		t.Fatalf("status = %s", got.Status)
	}
	if got.ChargePermissionID != "P03-123" || got.ProcessorChargeID != "S03-123" {
		t.Fatalf("correlation ids = %q, %q", got.ChargePermissionID, got.ProcessorChargeID)
	}
	if got.AuthorizedAt == nil || !got.AuthorizedAt.Equal(t1) {
		t.Fatalf("authorized_at = %v", got.AuthorizedAt)
	}

	// a second authorized attempt is a no-op and leaves the stamp alone
	t2 := t1.Add(time.Hour)
	ok, err = r.MarkAuthorized(ctx, db, rec.ID, "P03-456", "S03-456", t2)
	if err != nil {
		t.Fatalf("second MarkAuthorized: %v", err)
	}
	if ok {
		t.Fatal("second MarkAuthorized must be a no-op")
	}
	got, _ = r.FindByID(ctx, db, rec.ID)
	if got.ChargePermissionID != "P03-123" {
		t.Fatalf("no-op mutated charge_permission_id: %q", got.ChargePermissionID)
	}
	if !got.AuthorizedAt.Equal(t1) {
		t.Fatalf("no-op mutated authorized_at: %v", got.AuthorizedAt)
	}
}

func TestMarkAuthorizedRequiresChargePermission(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	rec := seedCharge(t, db, r, 2, nil)

	_, err := r.MarkAuthorized(context.Background(), db, rec.ID, "", "S03-123", time.Now())
	if err != domain.ErrMissingChargePermission {
		t.Fatalf("err = %v, want ErrMissingChargePermission", err)
	}
}

func TestIllegalTransitionIsNoOp(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()
	rec := seedCharge(t, db, r, 3, nil)
	now := time.Now().UTC()

	// canceled is unreachable from pending
	ok, err := r.Transition(ctx, db, rec.ID, domain.StatusCanceled, now)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if ok {
		t.Fatal("pending -> canceled must be a no-op")
	}
	got, _ := r.FindByID(ctx, db, rec.ID)
	if got.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}
	if got.CanceledAt != nil {
		t.Fatalf("canceled_at stamped on no-op: %v", got.CanceledAt)
	}
}

func TestRacingTriggersOnlyOneWins(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()
	rec := seedCharge(t, db, r, 4, nil)
	now := time.Now().UTC()

	if ok, err := r.MarkAuthorized(ctx, db, rec.ID, "P03-1", "S03-1", now); err != nil || !ok {
		t.Fatalf("MarkAuthorized = %v, %v", ok, err)
	}

	// the saga captures; a racing timeout trigger then tries to cancel
	ok, err := r.Transition(ctx, db, rec.ID, domain.StatusCaptured, now)
	if err != nil || !ok {
		t.Fatalf("captured = %v, %v", ok, err)
	}
	ok, err = r.Transition(ctx, db, rec.ID, domain.StatusCanceled, now)
	if err != nil {
		t.Fatalf("canceled: %v", err)
	}
	if ok {
		t.Fatal("cancel after capture must lose")
	}
	got, _ := r.FindByID(ctx, db, rec.ID)
	if got.Status != domain.StatusCaptured {
		t.Fatalf("status = %s, want captured", got.Status)
	}
}

func TestRefundFlow(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()
	rec := seedCharge(t, db, r, 5, nil)
	now := time.Now().UTC()

	if ok, _ := r.MarkAuthorized(ctx, db, rec.ID, "P03-9", "S03-9", now); !ok {
		t.Fatal("MarkAuthorized failed")
	}
	if ok, _ := r.Transition(ctx, db, rec.ID, domain.StatusCaptured, now); !ok {
		t.Fatal("captured failed")
	}
	ok, err := r.MarkRefundInitiated(ctx, db, rec.ID, "R03-9", now)
	if err != nil || !ok {
		t.Fatalf("MarkRefundInitiated = %v, %v", ok, err)
	}

	got, err := r.FindByPermissionAndRefund(ctx, db, "P03-9", "R03-9")
	if err != nil {
		t.Fatalf("FindByPermissionAndRefund: %v", err)
	}
	if got == nil || got.ID != rec.ID {
		t.Fatalf("lookup by permission+refund = %+v", got)
	}

	if ok, _ := r.Transition(ctx, db, rec.ID, domain.StatusRefunded, now); !ok {
		t.Fatal("refunded failed")
	}
	// a late declined notification loses
	if ok, _ := r.Transition(ctx, db, rec.ID, domain.StatusRefundDeclined, now); ok {
		t.Fatal("refund_declined after refunded must lose")
	}
}

func TestCancelDueClaim(t *testing.T) {
	db := newTestDB(t)
	r := Provide()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	due := seedCharge(t, db, r, 6, &past)
	seedCharge(t, db, r, 7, &future)
	seedCharge(t, db, r, 8, nil)

	recs, err := r.ListCancelDue(ctx, db, now, 10)
	if err != nil {
		t.Fatalf("ListCancelDue: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != due.ID {
		t.Fatalf("due charges = %+v", recs)
	}

	ok, err := r.ClearCancelDue(ctx, db, due.ID, now)
	if err != nil || !ok {
		t.Fatalf("ClearCancelDue = %v, %v", ok, err)
	}
	// second claim loses
	ok, err = r.ClearCancelDue(ctx, db, due.ID, now)
	if err != nil {
		t.Fatalf("second ClearCancelDue: %v", err)
	}
	if ok {
		t.Fatal("second claim must lose")
	}

	recs, _ = r.ListCancelDue(ctx, db, now, 10)
	if len(recs) != 0 {
		t.Fatalf("claimed charge still listed: %+v", recs)
	}
}
