package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/rentkit/payflow/internal/amazonpay"
)

type createCheckoutSessionRequest struct {
	ReviewReturnURL string `json:"review_return_url"`
	ResultReturnURL string `json:"result_return_url"`
	CancelURL       string `json:"cancel_url"`
	Recurring       bool   `json:"recurring"`
}

type checkoutSessionResponse struct {
	CheckoutSessionID  string `json:"checkout_session_id"`
	State              string `json:"state"`
	ChargePermissionID string `json:"charge_permission_id,omitempty"`
}

func (s *Server) createCheckoutSession(c *gin.Context) {
	var req createCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	apReq := &amazonpay.CreateCheckoutSessionRequest{
		StoreID: s.cfg.AmazonPay.StoreID,
		WebCheckoutDetails: &amazonpay.WebCheckoutDetails{
			CheckoutReviewReturnURL: req.ReviewReturnURL,
			CheckoutResultReturnURL: req.ResultReturnURL,
			CheckoutCancelURL:       req.CancelURL,
		},
	}
	if req.Recurring {
		apReq.ChargePermissionType = amazonpay.ChargePermissionTypeRecurring
	}

	session, err := s.gateway.CreateCheckoutSession(c.Request.Context(), apReq, amazonpay.NewIdempotencyKey())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkoutSessionResponse{
		CheckoutSessionID: session.CheckoutSessionID,
		State:             session.StatusDetails.State,
	})
}

// showCheckoutSession returns the session state. When the caller names a
// user and the session's buyer is already bound to a different user, the
// request is rejected so the front end can stop the checkout early.
func (s *Server) showCheckoutSession(c *gin.Context) {
	sessionID := c.Param("checkout_session_id")
	session, err := s.gateway.GetCheckoutSession(c.Request.Context(), sessionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if rawUser := c.Query("user_id"); rawUser != "" && session.Buyer != nil && session.Buyer.BuyerID != "" {
		userID, err := snowflake.ParseString(rawUser)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		boundTo, err := s.identitySvc.LookupBuyer(c.Request.Context(), s.db, session.Buyer.BuyerID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if boundTo != 0 && boundTo != userID {
			AbortWithError(c, ErrConflict)
			return
		}
	}

	c.JSON(http.StatusOK, checkoutSessionResponse{
		CheckoutSessionID:  session.CheckoutSessionID,
		State:              session.StatusDetails.State,
		ChargePermissionID: session.ChargePermissionID,
	})
}

type prepareSessionRequest struct {
	CheckoutSessionID string `json:"checkout_session_id" binding:"required"`
}

func (s *Server) prepareSession(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req prepareSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if err := s.checkoutSvc.PrepareSession(c.Request.Context(), orderID, req.CheckoutSessionID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "prepared"})
}

func (s *Server) completeCallback(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	if err := s.checkoutSvc.CompleteCallback(c.Request.Context(), orderID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
