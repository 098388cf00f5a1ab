package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Order statuses cover only what the payment flow needs to observe and
// mutate. Order creation itself lives upstream.
const (
	OrderStatusOpen     = "open"
	OrderStatusCanceled = "canceled"
)

const (
	ItemStatusInitial  = "initial"
	ItemStatusCanceled = "canceled"
)

// Cancel reasons recorded on items when the payment flow gives up.
const (
	CancelReasonAPIFailure = "api_failure"
	CancelReasonTimeout    = "timeout"
)

const (
	VendorStatusActive    = "active"
	VendorStatusSuspended = "suspended"
)

type Order struct {
	ID       snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID   snowflake.ID `json:"user_id" gorm:"not null;index"`
	VendorID snowflake.ID `json:"vendor_id" gorm:"not null;index"`
	Status   string       `json:"status" gorm:"type:text;not null"`

	Price               int64  `json:"price" gorm:"not null"`
	AuthorizationAmount int64  `json:"authorization_amount" gorm:"not null"`
	PaymentAmount       int64  `json:"payment_amount" gorm:"not null"`
	RefundAmount        int64  `json:"refund_amount" gorm:"not null"`
	Currency            string `json:"currency" gorm:"type:text;not null"`

	// CheckoutSessionID holds the one open processor session attached to
	// the order. Cleared as soon as it is consumed or expires.
	CheckoutSessionID *string `json:"checkout_session_id" gorm:"type:text"`

	Subscription bool `json:"subscription" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID      snowflake.ID `json:"order_id" gorm:"not null;index"`
	ProductID    snowflake.ID `json:"product_id" gorm:"not null"`
	Quantity     int          `json:"quantity" gorm:"not null"`
	Status       string       `json:"status" gorm:"type:text;not null"`
	CancelReason string       `json:"cancel_reason" gorm:"type:text"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// Payment is the immutable record of a successful capture. One row per
// settled monetary movement; never updated afterwards.
type Payment struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrderID   snowflake.ID `json:"order_id" gorm:"not null;index"`
	Amount    int64        `json:"amount" gorm:"not null"`
	Currency  string       `json:"currency" gorm:"type:text;not null"`
	Method    string       `json:"method" gorm:"type:text;not null"`
	PaidAt    time.Time    `json:"paid_at" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

const PaymentMethodAmazonPay = "amazon_pay"

// SubscriptionCharge is one scheduled recurring charge. The first entry is
// linked to the Payment produced by the initial checkout.
type SubscriptionCharge struct {
	ID             snowflake.ID  `json:"id" gorm:"primaryKey"`
	OrderID        snowflake.ID  `json:"order_id" gorm:"not null;index"`
	PaymentID      *snowflake.ID `json:"payment_id"`
	SequenceNumber int           `json:"sequence_number" gorm:"not null"`
	RefundAmount   int64         `json:"refund_amount" gorm:"not null;default:0"`
	NextChargeAt   *time.Time    `json:"next_charge_at"`
	CreatedAt      time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"not null"`
}

func (SubscriptionCharge) TableName() string { return "subscription_charges" }

type Vendor struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	Name             string       `json:"name" gorm:"type:text;not null"`
	Status           string       `json:"status" gorm:"type:text;not null"`
	MerchantApproved bool         `json:"merchant_approved" gorm:"not null"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"not null"`
}

func (Vendor) TableName() string { return "vendors" }

// Eligible reports whether the vendor may take payments.
func (v *Vendor) Eligible() bool {
	return v.Status == VendorStatusActive && v.MerchantApproved
}
