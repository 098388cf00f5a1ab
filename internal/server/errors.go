package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentkit/payflow/internal/amazonpay"
	checkoutdomain "github.com/rentkit/payflow/internal/checkout/domain"
	identitydomain "github.com/rentkit/payflow/internal/identity/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
	ErrConflict       = errors.New("conflict")
)

// ErrorHandlingMiddleware turns errors attached via c.Error into a
// uniform JSON error body. Handlers never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	// precondition rejections: the request is structurally fine but the
	// order is not in a chargeable state
	switch {
	case errors.Is(err, checkoutdomain.ErrChargeNotFound),
		errors.Is(err, checkoutdomain.ErrChargeNotPending),
		errors.Is(err, checkoutdomain.ErrSessionMissing),
		errors.Is(err, checkoutdomain.ErrSessionNotOpen),
		errors.Is(err, checkoutdomain.ErrItemsNotInitial),
		errors.Is(err, checkoutdomain.ErrNothingToCharge),
		errors.Is(err, checkoutdomain.ErrVendorInactive),
		errors.Is(err, checkoutdomain.ErrVendorNotEligible):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "precondition_failed",
			Message: err.Error(),
		}
	case errors.Is(err, identitydomain.ErrBuyerConflict),
		errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, checkoutdomain.ErrOrderNotFound),
		errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	}

	// fatal gateway outcomes surface as a bad upstream, with the
	// processor reason code for the caller
	var httpErr *amazonpay.HTTPStatusError
	if errors.As(err, &httpErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: httpErr.ErrorCodeMessage(),
			Reason:  httpErr.ReasonCode,
		}
	}
	var transportErr *amazonpay.TransportError
	if errors.As(err, &transportErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: "payment processor unreachable",
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}
