package amazonpay

// Amount is a processor money value. Amounts travel as strings on the wire.
type Amount struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// StatusDetails reports the current state of a processor entity.
type StatusDetails struct {
	State             string `json:"state"`
	ReasonCode        string `json:"reasonCode,omitempty"`
	ReasonDescription string `json:"reasonDescription,omitempty"`
}

// Buyer identifies the processor-side account that consented to pay.
type Buyer struct {
	BuyerID string `json:"buyerId"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
}

type WebCheckoutDetails struct {
	CheckoutReviewReturnURL string `json:"checkoutReviewReturnUrl,omitempty"`
	CheckoutResultReturnURL string `json:"checkoutResultReturnUrl,omitempty"`
	CheckoutCancelURL       string `json:"checkoutCancelUrl,omitempty"`
	CheckoutMode            string `json:"checkoutMode,omitempty"`
}

type PaymentDetails struct {
	PaymentIntent                 string  `json:"paymentIntent,omitempty"`
	CanHandlePendingAuthorization *bool   `json:"canHandlePendingAuthorization,omitempty"`
	ChargeAmount                  *Amount `json:"chargeAmount,omitempty"`
	ExtendExpiration              bool    `json:"extendExpiration,omitempty"`
}

type MerchantMetadata struct {
	MerchantReferenceID string `json:"merchantReferenceId,omitempty"`
	MerchantStoreName   string `json:"merchantStoreName,omitempty"`
	NoteToBuyer         string `json:"noteToBuyer,omitempty"`
}

type RecurringFrequency struct {
	Unit  string `json:"unit"`
	Value string `json:"value"`
}

type RecurringMetadata struct {
	Frequency RecurringFrequency `json:"frequency"`
}

// CheckoutSession is the processor's time-bounded buyer-consent handle.
type CheckoutSession struct {
	CheckoutSessionID  string              `json:"checkoutSessionId"`
	StatusDetails      StatusDetails       `json:"statusDetails"`
	ChargePermissionID string              `json:"chargePermissionId,omitempty"`
	ChargeID           string              `json:"chargeId,omitempty"`
	Buyer              *Buyer              `json:"buyer,omitempty"`
	WebCheckoutDetails *WebCheckoutDetails `json:"webCheckoutDetails,omitempty"`
	PaymentDetails     *PaymentDetails     `json:"paymentDetails,omitempty"`
	MerchantMetadata   *MerchantMetadata   `json:"merchantMetadata,omitempty"`
}

type CreateCheckoutSessionRequest struct {
	WebCheckoutDetails   *WebCheckoutDetails `json:"webCheckoutDetails,omitempty"`
	StoreID              string              `json:"storeId"`
	Scopes               []string            `json:"scopes,omitempty"`
	ChargePermissionType string              `json:"chargePermissionType,omitempty"`
	RecurringMetadata    *RecurringMetadata  `json:"recurringMetadata,omitempty"`
	PaymentDetails       *PaymentDetails     `json:"paymentDetails,omitempty"`
	MerchantMetadata     *MerchantMetadata   `json:"merchantMetadata,omitempty"`
}

type UpdateCheckoutSessionRequest struct {
	WebCheckoutDetails *WebCheckoutDetails `json:"webCheckoutDetails,omitempty"`
	PaymentDetails     *PaymentDetails     `json:"paymentDetails,omitempty"`
	MerchantMetadata   *MerchantMetadata   `json:"merchantMetadata,omitempty"`
}

type CompleteCheckoutSessionRequest struct {
	ChargeAmount Amount `json:"chargeAmount"`
}

// Charge is one payment attempt against a charge permission.
type Charge struct {
	ChargeID           string        `json:"chargeId"`
	ChargePermissionID string        `json:"chargePermissionId"`
	ChargeAmount       *Amount       `json:"chargeAmount,omitempty"`
	CaptureAmount      *Amount       `json:"captureAmount,omitempty"`
	RefundedAmount     *Amount       `json:"refundedAmount,omitempty"`
	StatusDetails      StatusDetails `json:"statusDetails"`
}

type CreateChargeRequest struct {
	ChargePermissionID            string `json:"chargePermissionId"`
	ChargeAmount                  Amount `json:"chargeAmount"`
	CaptureNow                    bool   `json:"captureNow"`
	CanHandlePendingAuthorization bool   `json:"canHandlePendingAuthorization"`
}

type CaptureChargeRequest struct {
	CaptureAmount  Amount `json:"captureAmount"`
	SoftDescriptor string `json:"softDescriptor,omitempty"`
}

type CancelChargeRequest struct {
	CancellationReason string `json:"cancellationReason,omitempty"`
}

// Refund tracks an asynchronous money return.
type Refund struct {
	RefundID      string        `json:"refundId"`
	ChargeID      string        `json:"chargeId"`
	RefundAmount  *Amount       `json:"refundAmount,omitempty"`
	StatusDetails StatusDetails `json:"statusDetails"`
}

type CreateRefundRequest struct {
	ChargeID       string `json:"chargeId"`
	RefundAmount   Amount `json:"refundAmount"`
	SoftDescriptor string `json:"softDescriptor,omitempty"`
}

// ChargePermission is the long-lived authorization-to-charge record,
// distinct from an individual charge attempt.
type ChargePermission struct {
	ChargePermissionID   string        `json:"chargePermissionId"`
	ChargePermissionType string        `json:"chargePermissionType,omitempty"`
	Buyer                *Buyer        `json:"buyer,omitempty"`
	StatusDetails        StatusDetails `json:"statusDetails"`
}
