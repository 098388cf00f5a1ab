package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ChargeRecord is one payment attempt against an order. It is created in
// StatusPending as the last step of order preparation, before any gateway
// call, and is never deleted; the per-state timestamps are the audit trail.
type ChargeRecord struct {
	ID                 snowflake.ID  `json:"id" gorm:"primaryKey"`
	OrderID            snowflake.ID  `json:"order_id" gorm:"not null;index"`
	PaymentID          *snowflake.ID `json:"payment_id"`
	ChargePermissionID string        `json:"charge_permission_id" gorm:"type:text"`
	ProcessorChargeID  string        `json:"processor_charge_id" gorm:"type:text"`
	RefundID           string        `json:"refund_id" gorm:"type:text"`
	Status             Status        `json:"status" gorm:"type:text;not null"`
	Amount             int64         `json:"amount" gorm:"not null"`
	Currency           string        `json:"currency" gorm:"type:text;not null"`

	// CancelDueAt is the timeout deadline for an unconsumed authorization
	// window. Cleared once the timeout worker claims the charge.
	CancelDueAt *time.Time `json:"cancel_due_at" gorm:"index"`

	AuthorizedAt      *time.Time `json:"authorized_at"`
	CapturedAt        *time.Time `json:"captured_at"`
	CaptureDeclinedAt *time.Time `json:"capture_declined_at"`
	CanceledAt        *time.Time `json:"canceled_at"`
	RefundInitiatedAt *time.Time `json:"refund_initiated_at"`
	RefundedAt        *time.Time `json:"refunded_at"`
	RefundDeclinedAt  *time.Time `json:"refund_declined_at"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (ChargeRecord) TableName() string { return "charges" }
