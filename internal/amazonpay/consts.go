package amazonpay

// Checkout session states.
const (
	CheckoutSessionStateOpen      = "Open"
	CheckoutSessionStateCompleted = "Completed"
	CheckoutSessionStateCanceled  = "Canceled"
)

// Payment intents for a checkout session.
const (
	PaymentIntentAuthorize            = "Authorize"
	PaymentIntentAuthorizeWithCapture = "AuthorizeWithCapture"
)

// Charge permission types.
const (
	ChargePermissionTypeOneTime   = "OneTime"
	ChargePermissionTypeRecurring = "Recurring"
)

// Charge states.
const (
	ChargeStateAuthorizationInitiated = "AuthorizationInitiated"
	ChargeStateAuthorized             = "Authorized"
	ChargeStateCaptureInitiated       = "CaptureInitiated"
	ChargeStateCaptured               = "Captured"
	ChargeStateCanceled               = "Canceled"
	ChargeStateDeclined               = "Declined"
)

// Charge permission states.
const (
	ChargePermissionStateChargeable    = "Chargeable"
	ChargePermissionStateNonChargeable = "NonChargeable"
	ChargePermissionStateClosed        = "Closed"
)

// Refund states.
const (
	RefundStateInitiated = "RefundInitiated"
	RefundStateRefunded  = "Refunded"
	RefundStateDeclined  = "Declined"
)

// Processor reason codes.
const (
	// 400 BAD_REQUEST
	ReasonInvalidHeaderValue        = "InvalidHeaderValue"
	ReasonInvalidRequest            = "InvalidRequest"
	ReasonInvalidParameterValue     = "InvalidParameterValue"
	ReasonInvalidRequestFormat      = "InvalidRequestFormat"
	ReasonMissingHeader             = "MissingHeader"
	ReasonMissingHeaderValue        = "MissingHeaderValue"
	ReasonMissingParameterValue     = "MissingParameterValue"
	ReasonUnrecognizedField         = "UnrecognizedField"
	ReasonDuplicateIdempotencyKey   = "DuplicateIdempotencyKey"
	ReasonCurrencyMismatch          = "CurrencyMismatch"
	ReasonTransactionAmountExceeded = "TransactionAmountExceeded"
	ReasonPeriodicAmountExceeded    = "PeriodicAmountExceeded"

	// 401 / 403
	ReasonUnauthorizedAccess        = "UnauthorizedAccess"
	ReasonInvalidAuthentication     = "InvalidAuthentication"
	ReasonInvalidAccountStatus      = "InvalidAccountStatus"
	ReasonInvalidRequestSignature   = "InvalidRequestSignature"
	ReasonInvalidAuthorizationToken = "InvalidAuthorizationToken"

	// 404 / 405 / 408 / 409
	ReasonResourceNotFound     = "ResourceNotFound"
	ReasonUnsupportedOperation = "UnsupportedOperation"
	ReasonRequestNotSupported  = "RequestNotSupported"
	ReasonRequestTimeout       = "RequestTimeout"
	ReasonAmountMismatch       = "AmountMismatch"

	// 422 UNPROCESSABLE_ENTITY
	ReasonInvalidChargeStatus           = "InvalidChargeStatus"
	ReasonTransactionCountExceeded      = "TransactionCountExceeded"
	ReasonAmazonRejected                = "AmazonRejected"
	ReasonInvalidCheckoutSessionStatus  = "InvalidCheckoutSessionStatus"
	ReasonCheckoutSessionCanceled       = "CheckoutSessionCanceled"
	ReasonHardDeclined                  = "HardDeclined"
	ReasonPaymentMethodNotAllowed       = "PaymentMethodNotAllowed"
	ReasonMFANotCompleted               = "MFANotCompleted"
	ReasonTransactionTimedOut           = "TransactionTimedOut"
	ReasonInvalidChargePermissionStatus = "InvalidChargePermissionStatus"
	ReasonSoftDeclined                  = "SoftDeclined"

	// 429 / 500 / 503
	ReasonTooManyRequests     = "TooManyRequests"
	ReasonInternalServerError = "InternalServerError"
	ReasonProcessingFailure   = "ProcessingFailure"
	ReasonServiceUnavailable  = "ServiceUnavailable"
)

// reasonMessages maps processor reason codes to operator-readable messages.
var reasonMessages = map[string]string{
	ReasonInvalidHeaderValue:        "an API header parameter contains an invalid value",
	ReasonInvalidRequest:            "the request is invalid",
	ReasonInvalidParameterValue:     "an API parameter contains an invalid value",
	ReasonInvalidRequestFormat:      "the request JSON is malformed",
	ReasonMissingHeader:             "a required header parameter is missing",
	ReasonMissingHeaderValue:        "a header parameter value is missing",
	ReasonMissingParameterValue:     "a required request parameter is missing",
	ReasonUnrecognizedField:         "the request contains an unrecognized field",
	ReasonDuplicateIdempotencyKey:   "the idempotency key has already been used",
	ReasonCurrencyMismatch:          "the currency code does not match",
	ReasonTransactionAmountExceeded: "the maximum charge or refund amount was exceeded",
	ReasonPeriodicAmountExceeded:    "the maximum monthly charge amount was exceeded",

	ReasonUnauthorizedAccess:        "not authorized to execute this request",
	ReasonInvalidAuthentication:     "authentication failed",
	ReasonInvalidAccountStatus:      "the account is not in an appropriate state",
	ReasonInvalidRequestSignature:   "the request signature is invalid",
	ReasonInvalidAuthorizationToken: "the authorization token is invalid",

	ReasonResourceNotFound:     "the resource was not found",
	ReasonUnsupportedOperation: "this operation is not supported",
	ReasonRequestNotSupported:  "this HTTP method is not supported",
	ReasonRequestTimeout:       "the request timed out; a retry is not guaranteed to succeed",
	ReasonAmountMismatch:       "the payment amounts do not match",

	ReasonInvalidChargeStatus:           "the operation is not allowed in the current charge state",
	ReasonTransactionCountExceeded:      "the maximum number of charges or refunds per order was exceeded",
	ReasonAmazonRejected:                "the charge or refund was rejected by the processor",
	ReasonInvalidCheckoutSessionStatus:  "the checkout session is not in an allowed state for this operation",
	ReasonCheckoutSessionCanceled:       "the buyer canceled the transaction or payment was declined",
	ReasonHardDeclined:                  "the payment was declined; the buyer must change payment method",
	ReasonPaymentMethodNotAllowed:       "the selected payment method is not allowed for this charge",
	ReasonMFANotCompleted:               "the buyer must complete multi-factor authentication",
	ReasonTransactionTimedOut:           "the transaction timed out",
	ReasonInvalidChargePermissionStatus: "the charge permission cannot be modified in its current state",
	ReasonSoftDeclined:                  "the payment was temporarily declined; it may succeed on retry",

	ReasonTooManyRequests:     "the request rate limit was exceeded",
	ReasonInternalServerError: "the processor encountered an internal error",
	ReasonProcessingFailure:   "the processor could not complete the operation due to an internal error",
	ReasonServiceUnavailable:  "the service is temporarily unavailable",
}

// ReasonMessage resolves a reason code to a human-readable message.
func ReasonMessage(code string) (string, bool) {
	msg, ok := reasonMessages[code]
	return msg, ok
}
