package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rentkit/payflow/internal/alert"
	"github.com/rentkit/payflow/internal/amazonpay"
	chargedomain "github.com/rentkit/payflow/internal/charge/domain"
	chargerepo "github.com/rentkit/payflow/internal/charge/repository"
	"github.com/rentkit/payflow/internal/clock"
	"github.com/rentkit/payflow/internal/orderlock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRefundGateway struct {
	state string
	err   error
	calls int
}

func (f *fakeRefundGateway) GetRefund(ctx context.Context, refundID string) (*amazonpay.Refund, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &amazonpay.Refund{
		RefundID:      refundID,
		StatusDetails: amazonpay.StatusDetails{State: f.state},
	}, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []alert.Event
}

func (c *captureNotifier) Notify(ctx context.Context, event alert.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func newNotificationFixture(t *testing.T, gw *fakeRefundGateway) (*NotificationHandler, *gorm.DB, *captureNotifier, chargedomain.Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&chargedomain.ChargeRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	alerts := &captureNotifier{}
	repo := chargerepo.Provide()
	h := NewNotificationHandler(NotificationParams{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)),
		Gateway: gw,
		Locker:  orderlock.NewLocalLocker(),
		Charges: repo,
		Alerts:  alerts,
	})
	return h, db, alerts, repo
}

func seedRefundInitiated(t *testing.T, db *gorm.DB, repo chargedomain.Repository, id snowflake.ID) *chargedomain.ChargeRecord {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	rec := &chargedomain.ChargeRecord{
		ID:      id,
		OrderID: id + 1000,
		Status:  chargedomain.StatusPending,
		Amount:  1200, Currency: "JPY",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.Insert(ctx, db, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.MarkAuthorized(ctx, db, id, "P03-N", "S03-N", now); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if _, err := repo.Transition(ctx, db, id, chargedomain.StatusCaptured, now); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if _, err := repo.MarkRefundInitiated(ctx, db, id, "R03-N", now); err != nil {
		t.Fatalf("refund init: %v", err)
	}
	return rec
}

func refundPayload(objectType, objectID, permissionID string) []byte {
	inner := fmt.Sprintf(`{"ObjectType":%q,"ObjectId":%q,"ChargePermissionId":%q}`, objectType, objectID, permissionID)
	return []byte(fmt.Sprintf(`{"Message":%q}`, inner))
}

func TestNotificationDrivesRefunded(t *testing.T) {
	gw := &fakeRefundGateway{state: amazonpay.RefundStateRefunded}
	h, db, alerts, repo := newNotificationFixture(t, gw)
	seedRefundInitiated(t, db, repo, 10)

	h.Handle(context.Background(), refundPayload("REFUND", "R03-N", "P03-N"))

	rec, _ := repo.FindByID(context.Background(), db, 10)
	if rec.Status != chargedomain.StatusRefunded {
		t.Fatalf("status = %s, want refunded", rec.Status)
	}
	if rec.RefundedAt == nil {
		t.Fatal("refunded_at not stamped")
	}
	if alerts.count() != 0 {
		t.Fatalf("unexpected alerts: %+v", alerts.events)
	}
}

func TestNotificationDrivesRefundDeclined(t *testing.T) {
	gw := &fakeRefundGateway{state: amazonpay.RefundStateDeclined}
	h, db, _, repo := newNotificationFixture(t, gw)
	seedRefundInitiated(t, db, repo, 11)

	h.Handle(context.Background(), refundPayload("REFUND", "R03-N", "P03-N"))

	rec, _ := repo.FindByID(context.Background(), db, 11)
	if rec.Status != chargedomain.StatusRefundDeclined {
		t.Fatalf("status = %s, want refund_declined", rec.Status)
	}
}

func TestNotificationLeavesInFlightRefund(t *testing.T) {
	gw := &fakeRefundGateway{state: amazonpay.RefundStateInitiated}
	h, db, _, repo := newNotificationFixture(t, gw)
	seedRefundInitiated(t, db, repo, 12)

	h.Handle(context.Background(), refundPayload("REFUND", "R03-N", "P03-N"))

	rec, _ := repo.FindByID(context.Background(), db, 12)
	if rec.Status != chargedomain.StatusRefundInitiated {
		t.Fatalf("status = %s, want refund_initiated", rec.Status)
	}
}

func TestNotificationIgnoresOtherObjectTypes(t *testing.T) {
	gw := &fakeRefundGateway{state: amazonpay.RefundStateRefunded}
	h, db, alerts, repo := newNotificationFixture(t, gw)
	seedRefundInitiated(t, db, repo, 13)

	h.Handle(context.Background(), refundPayload("CHARGE", "S03-N", "P03-N"))

	if gw.calls != 0 {
		t.Fatal("ignored object type still fetched refund state")
	}
	rec, _ := repo.FindByID(context.Background(), db, 13)
	if rec.Status != chargedomain.StatusRefundInitiated {
		t.Fatalf("status = %s", rec.Status)
	}
	if alerts.count() != 0 {
		t.Fatalf("unexpected alerts: %+v", alerts.events)
	}
}

func TestNotificationFailuresAlertAndAck(t *testing.T) {
	gw := &fakeRefundGateway{err: errors.New("api down")}
	h, db, alerts, repo := newNotificationFixture(t, gw)
	seedRefundInitiated(t, db, repo, 14)

	// malformed payload
	h.Handle(context.Background(), []byte("not json"))
	// unmatched refund
	h.Handle(context.Background(), refundPayload("REFUND", "R-nope", "P-nope"))
	// gateway failure
	h.Handle(context.Background(), refundPayload("REFUND", "R03-N", "P03-N"))

	if alerts.count() != 3 {
		t.Fatalf("alerts = %d, want 3", alerts.count())
	}
	for _, e := range alerts.events {
		if e.Kind != alert.KindNotificationFailed {
			t.Fatalf("kind = %s", e.Kind)
		}
	}
	rec, _ := repo.FindByID(context.Background(), db, 14)
	if rec.Status != chargedomain.StatusRefundInitiated {
		t.Fatalf("status = %s", rec.Status)
	}
}
