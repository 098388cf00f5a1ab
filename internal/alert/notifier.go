package alert

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	"go.uber.org/zap"
)

// Kind classifies an operator alert. Whether a failure is alerted or
// escalated is decided by the caller; the notifier only delivers.
type Kind string

const (
	KindCaptureChangeFailed Kind = "capture_change_failed"
	KindCancelFailed        Kind = "cancel_failed"
	KindRefundFailed        Kind = "refund_failed"
	KindOrderCancelFailed   Kind = "order_cancel_failed"
	KindNotificationFailed  Kind = "notification_failed"
	KindTimeoutCancelFailed Kind = "timeout_cancel_failed"
	KindBuyerLinkConflict   Kind = "buyer_link_conflict"
)

// Event is one operator alert. Alerts carry enough correlation data for
// manual follow-up against the processor console.
type Event struct {
	Kind     Kind
	Message  string
	OrderID  snowflake.ID
	ChargeID snowflake.ID
	Err      error
}

func (e Event) text() string {
	msg := fmt.Sprintf("[%s] %s order-id: %s", e.Kind, e.Message, e.OrderID)
	if e.ChargeID != 0 {
		msg += fmt.Sprintf(" charge-id: %s", e.ChargeID)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" error: %v", e.Err)
	}
	return msg
}

// Notifier delivers operator alerts out-of-band. Delivery failures must
// never propagate into the payment flow.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type logNotifier struct {
	log        *zap.Logger
	obsMetrics *obsmetrics.Metrics
}

// NewLogNotifier emits alerts through the structured log.
func NewLogNotifier(log *zap.Logger, m *obsmetrics.Metrics) Notifier {
	return &logNotifier{log: log.Named("alert"), obsMetrics: m}
}

func (n *logNotifier) Notify(ctx context.Context, event Event) {
	n.obsMetrics.RecordAlert(string(event.Kind))
	fields := []zap.Field{
		zap.String("kind", string(event.Kind)),
		zap.String("order_id", event.OrderID.String()),
	}
	if event.ChargeID != 0 {
		fields = append(fields, zap.String("charge_id", event.ChargeID.String()))
	}
	if event.Err != nil {
		fields = append(fields, zap.Error(event.Err))
	}
	n.log.Error(event.Message, fields...)
}
