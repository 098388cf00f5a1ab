package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rentkit/payflow/internal/alert"
	"github.com/rentkit/payflow/internal/amazonpay"
	chargedomain "github.com/rentkit/payflow/internal/charge/domain"
	chargerepo "github.com/rentkit/payflow/internal/charge/repository"
	checkoutdomain "github.com/rentkit/payflow/internal/checkout/domain"
	"github.com/rentkit/payflow/internal/clock"
	"github.com/rentkit/payflow/internal/config"
	identitydomain "github.com/rentkit/payflow/internal/identity/domain"
	identityrepo "github.com/rentkit/payflow/internal/identity/repository"
	identityservice "github.com/rentkit/payflow/internal/identity/service"
	"github.com/rentkit/payflow/internal/orderlock"
	"github.com/rentkit/payflow/internal/reconcile"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubCheckout struct {
	prepareErr  error
	callbackErr error
}

func (s *stubCheckout) PrepareSession(ctx context.Context, orderID snowflake.ID, sessionID string) error {
	return s.prepareErr
}

func (s *stubCheckout) CompleteCallback(ctx context.Context, orderID snowflake.ID) error {
	return s.callbackErr
}

func (s *stubCheckout) FulfillImmediate(ctx context.Context, orderID snowflake.ID, sessionID string) error {
	return nil
}

func (s *stubCheckout) TimeoutAutoCancel(ctx context.Context, orderID snowflake.ID) (checkoutdomain.TimeoutResult, error) {
	return checkoutdomain.TimeoutSkipped, nil
}

type stubGateway struct {
	sessionBuyer string
	createErr    error
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, req *amazonpay.CreateCheckoutSessionRequest, key amazonpay.IdempotencyKey) (*amazonpay.CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &amazonpay.CheckoutSession{
		CheckoutSessionID: "cs-created",
		StatusDetails:     amazonpay.StatusDetails{State: amazonpay.CheckoutSessionStateOpen},
	}, nil
}

func (g *stubGateway) GetCheckoutSession(ctx context.Context, id string) (*amazonpay.CheckoutSession, error) {
	session := &amazonpay.CheckoutSession{
		CheckoutSessionID: id,
		StatusDetails:     amazonpay.StatusDetails{State: amazonpay.CheckoutSessionStateOpen},
	}
	if g.sessionBuyer != "" {
		session.Buyer = &amazonpay.Buyer{BuyerID: g.sessionBuyer}
	}
	return session, nil
}

func (g *stubGateway) UpdateCheckoutSession(ctx context.Context, id string, req *amazonpay.UpdateCheckoutSessionRequest) (*amazonpay.CheckoutSession, error) {
	return nil, nil
}

func (g *stubGateway) CompleteCheckoutSession(ctx context.Context, id string, req *amazonpay.CompleteCheckoutSessionRequest, key amazonpay.IdempotencyKey) (*amazonpay.CheckoutSession, error) {
	return nil, nil
}

func (g *stubGateway) GetCharge(ctx context.Context, chargeID string) (*amazonpay.Charge, error) {
	return nil, nil
}

func (g *stubGateway) CaptureCharge(ctx context.Context, chargeID string, req *amazonpay.CaptureChargeRequest, key amazonpay.IdempotencyKey) (*amazonpay.Charge, error) {
	return nil, nil
}

func (g *stubGateway) CancelCharge(ctx context.Context, chargeID string, req *amazonpay.CancelChargeRequest, key amazonpay.IdempotencyKey) (*amazonpay.Charge, error) {
	return nil, nil
}

func (g *stubGateway) CreateRefund(ctx context.Context, req *amazonpay.CreateRefundRequest, key amazonpay.IdempotencyKey) (*amazonpay.Refund, error) {
	return nil, nil
}

func (g *stubGateway) GetRefund(ctx context.Context, refundID string) (*amazonpay.Refund, error) {
	return nil, nil
}

func (g *stubGateway) GetChargePermission(ctx context.Context, id string) (*amazonpay.ChargePermission, error) {
	return nil, nil
}

type dropNotifier struct{}

func (dropNotifier) Notify(ctx context.Context, event alert.Event) {}

func newTestServer(t *testing.T, co *stubCheckout, gw *stubGateway) (*Server, *gorm.DB, identitydomain.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&identitydomain.ExternalAccount{}, &chargedomain.ChargeRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	idsvc := identityservice.NewService(identityservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  identityrepo.Provide(),
	})
	notifications := reconcile.NewNotificationHandler(reconcile.NotificationParams{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   clk,
		Gateway: gw,
		Locker:  orderlock.NewLocalLocker(),
		Charges: chargerepo.Provide(),
		Alerts:  dropNotifier{},
	})
	cfg := config.Config{HTTPAddr: ":0", AmazonPay: config.AmazonPayConfig{StoreID: "store-1"}}
	engine := NewEngine(cfg, zap.NewNop())
	srv := NewServer(ServerParams{
		Engine:        engine,
		Cfg:           cfg,
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Gateway:       gw,
		CheckoutSvc:   co,
		IdentitySvc:   idsvc,
		Notifications: notifications,
	})
	return srv, db, idsvc
}

func doRequest(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func TestCallbackMapsPreconditionTo422(t *testing.T) {
	co := &stubCheckout{callbackErr: checkoutdomain.ErrChargeNotPending}
	srv, _, _ := newTestServer(t, co, &stubGateway{})

	w := doRequest(srv, http.MethodPost, "/api/v1/orders/123/amazon_pay/callback", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestCallbackMapsOrderNotFoundTo404(t *testing.T) {
	co := &stubCheckout{callbackErr: checkoutdomain.ErrOrderNotFound}
	srv, _, _ := newTestServer(t, co, &stubGateway{})

	w := doRequest(srv, http.MethodPost, "/api/v1/orders/123/amazon_pay/callback", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCallbackMapsGatewayErrorTo502(t *testing.T) {
	co := &stubCheckout{callbackErr: &amazonpay.HTTPStatusError{
		Operation: "complete_checkout_session", Status: 422,
		ReasonCode: amazonpay.ReasonHardDeclined,
	}}
	srv, _, _ := newTestServer(t, co, &stubGateway{})

	w := doRequest(srv, http.MethodPost, "/api/v1/orders/123/amazon_pay/callback", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubCheckout{}, &stubGateway{})

	w := doRequest(srv, http.MethodPost, "/api/v1/amazon_pay/checkout_sessions",
		[]byte(`{"review_return_url":"https://shop.example/review"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestShowCheckoutSessionBuyerConflict(t *testing.T) {
	gw := &stubGateway{sessionBuyer: "buyer-x"}
	srv, db, idsvc := newTestServer(t, &stubCheckout{}, gw)

	if err := idsvc.LinkBuyer(context.Background(), db, 500, "buyer-x"); err != nil {
		t.Fatalf("link: %v", err)
	}

	// other user asks about a session whose buyer belongs to user 500
	w := doRequest(srv, http.MethodGet, "/api/v1/amazon_pay/checkout_sessions/cs-1?user_id=600", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	// the owner is fine
	w = doRequest(srv, http.MethodGet, "/api/v1/amazon_pay/checkout_sessions/cs-1?user_id=500", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestNotificationEndpointAlwaysAcks(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubCheckout{}, &stubGateway{})

	w := doRequest(srv, http.MethodPost, "/api/v1/amazon_pay/ipn", []byte("definitely not json"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
