package reconcile

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rentkit/payflow/internal/alert"
	"github.com/rentkit/payflow/internal/amazonpay"
	chargedomain "github.com/rentkit/payflow/internal/charge/domain"
	"github.com/rentkit/payflow/internal/clock"
	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	"github.com/rentkit/payflow/internal/orderlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Gateway is the slice of the processor client the reconciler needs.
type Gateway interface {
	GetRefund(ctx context.Context, refundID string) (*amazonpay.Refund, error)
}

// envelope is the outer transport wrapper; Message carries the actual
// notification as a JSON string.
type envelope struct {
	Message string `json:"Message"`
}

type notificationMessage struct {
	ObjectType         string `json:"ObjectType"`
	ObjectID           string `json:"ObjectId"`
	ChargePermissionID string `json:"ChargePermissionId"`
}

const objectTypeRefund = "REFUND"

type NotificationParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Gateway    Gateway
	Locker     orderlock.Locker
	Charges    chargedomain.Repository
	Alerts     alert.Notifier
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// NotificationHandler converges refund outcomes onto the charge record.
// Refunds are asynchronous from this system's point of view; the
// processor's refund notifications are the only place completion is
// knowable.
type NotificationHandler struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	gateway    Gateway
	locker     orderlock.Locker
	charges    chargedomain.Repository
	alerts     alert.Notifier
	obsMetrics *obsmetrics.Metrics
}

func NewNotificationHandler(p NotificationParams) *NotificationHandler {
	return &NotificationHandler{
		db:         p.DB,
		log:        p.Log.Named("reconcile.notification"),
		clock:      p.Clock,
		gateway:    p.Gateway,
		locker:     p.Locker,
		charges:    p.Charges,
		alerts:     p.Alerts,
		obsMetrics: p.ObsMetrics,
	}
}

// Handle processes one inbound notification. It never returns an error:
// the sender is always acknowledged to prevent redelivery storms, and
// internal failures surface through the alert channel only.
func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) {
	start := time.Now()
	result := h.handle(ctx, payload)
	h.obsMetrics.RecordReconcileJob("notification", result, time.Since(start))
}

func (h *NotificationHandler) handle(ctx context.Context, payload []byte) string {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		h.notifyFailure(ctx, "notification envelope is not valid JSON", err)
		return "invalid"
	}
	var msg notificationMessage
	if err := json.Unmarshal([]byte(env.Message), &msg); err != nil {
		h.notifyFailure(ctx, "notification message is not valid JSON", err)
		return "invalid"
	}

	// refunds are the only object type reconciled here; everything else
	// is acknowledged and dropped
	if !strings.EqualFold(msg.ObjectType, objectTypeRefund) {
		h.log.Debug("ignoring notification",
			zap.String("object_type", msg.ObjectType),
			zap.String("object_id", msg.ObjectID),
		)
		return "ignored"
	}

	rec, err := h.charges.FindByPermissionAndRefund(ctx, h.db, msg.ChargePermissionID, msg.ObjectID)
	if err != nil {
		h.notifyFailure(ctx, "charge lookup failed for refund notification", err)
		return "error"
	}
	if rec == nil {
		h.notifyFailure(ctx, "no charge matches refund notification "+msg.ObjectID, nil)
		return "unmatched"
	}

	refund, err := h.gateway.GetRefund(ctx, msg.ObjectID)
	if err != nil {
		h.notifyFailure(ctx, "refund status fetch failed", err)
		return "error"
	}

	release, err := h.locker.Acquire(ctx, rec.OrderID)
	if err != nil {
		h.notifyFailure(ctx, "order lock not acquired for refund notification", err)
		return "error"
	}
	defer release()

	now := h.clock.Now()
	switch refund.StatusDetails.State {
	case amazonpay.RefundStateRefunded:
		if _, err := h.charges.Transition(ctx, h.db, rec.ID, chargedomain.StatusRefunded, now); err != nil {
			h.notifyFailure(ctx, "refunded transition failed", err)
			return "error"
		}
		return "refunded"
	case amazonpay.RefundStateDeclined:
		if _, err := h.charges.Transition(ctx, h.db, rec.ID, chargedomain.StatusRefundDeclined, now); err != nil {
			h.notifyFailure(ctx, "refund_declined transition failed", err)
			return "error"
		}
		return "refund_declined"
	default:
		// still in flight; a later notification will settle it
		return "in_flight"
	}
}

func (h *NotificationHandler) notifyFailure(ctx context.Context, message string, err error) {
	h.alerts.Notify(ctx, alert.Event{
		Kind:    alert.KindNotificationFailed,
		Message: message,
		Err:     err,
	})
}
