package domain

import "errors"

// Precondition rejections. These fail the request before any gateway
// call, so no compensation runs for them.
var (
	ErrOrderNotFound    = errors.New("checkout: order not found")
	ErrVendorInactive   = errors.New("checkout: vendor is not active")
	ErrVendorNotEligible = errors.New("checkout: vendor is not approved for payments")
	ErrChargeNotFound   = errors.New("checkout: no charge record for order")
	ErrChargeNotPending = errors.New("checkout: charge already settled")
	ErrSessionMissing   = errors.New("checkout: no checkout session attached to order")
	ErrItemsNotInitial  = errors.New("checkout: order items are not all initial")
	ErrNothingToCharge  = errors.New("checkout: neither authorization nor payment amount is set")
	ErrSessionNotOpen   = errors.New("checkout: checkout session is not open")
)
