package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paygate/config"
	"paygate/internal/logger"
	"paygate/internal/models"
	"paygate/internal/repository"
	"paygate/internal/service"
	"paygate/pkg/paypal"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type pdtFixture struct {
	engine    *gin.Engine
	orderRepo *repository.OrderRepository
}

func newPDTFixture(t *testing.T, gatewayReply string) *pdtFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	orderRepo := repository.NewOrderRepository(db)

	gateway := fakeGateway(t, gatewayReply)
	verifier := paypal.NewVerifier(&staticSettings{endpoint: gateway.URL}, time.Second, logger.Nop())
	orderReconciler := service.NewOrderReconciler(orderRepo, logger.Nop())
	cfg := &config.PayPalConfig{
		HomeURL:              "/",
		CheckoutCompletedURL: "/checkout/completed/",
		OrderDetailsURL:      "/orders/details/",
	}

	engine := gin.New()
	h := NewPDTReturnHandler(verifier, orderReconciler, orderRepo, cfg, logger.Nop())
	engine.GET("/paypal/return", h.Handle)
	engine.GET("/paypal/cancel", h.Cancel)
	return &pdtFixture{engine: engine, orderRepo: orderRepo}
}

func (f *pdtFixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func pdtSuccessBody(orderGUID string) string {
	return "SUCCESS\n" +
		"custom=" + orderGUID + "\n" +
		"payment_status=Completed\n" +
		"mc_gross=100.00\n" +
		"mc_currency=USD\n" +
		"txn_id=TXN-PDT\n"
}

func TestPDTReturnTrustedMarksPaidAndRedirectsToCompleted(t *testing.T) {
	guid := uuid.NewString()
	f := newPDTFixture(t, pdtSuccessBody(guid))

	sent := decimal.RequireFromString("100.00")
	order := &models.Order{
		OrderGUID:          guid,
		Total:              sent,
		Currency:           "USD",
		PaymentStatus:      models.PaymentStatusPending,
		TotalSentToGateway: &sent,
	}
	require.NoError(t, f.orderRepo.Create(order))

	w := f.get(t, "/paypal/return?tx=tx-1")

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, fmt.Sprintf("/checkout/completed/%d", order.ID), w.Header().Get("Location"))

	got, err := f.orderRepo.GetByID(order.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	require.Nil(t, got.TotalSentToGateway)
}

func TestPDTReturnSentTotalMismatchRedirectsHome(t *testing.T) {
	guid := uuid.NewString()
	f := newPDTFixture(t, pdtSuccessBody(guid))

	sent := decimal.RequireFromString("99.99")
	order := &models.Order{
		OrderGUID:          guid,
		Total:              decimal.RequireFromString("100.00"),
		Currency:           "USD",
		PaymentStatus:      models.PaymentStatusPending,
		TotalSentToGateway: &sent,
	}
	require.NoError(t, f.orderRepo.Create(order))

	w := f.get(t, "/paypal/return?tx=tx-1")

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	got, err := f.orderRepo.GetByID(order.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, got.PaymentStatus)
}

func TestPDTReturnUntrustedNotesFailureAndRedirects(t *testing.T) {
	guid := uuid.NewString()
	f := newPDTFixture(t, "FAIL\nInvalid transaction id\n")

	order := &models.Order{
		OrderGUID:     guid,
		Total:         decimal.RequireFromString("100.00"),
		Currency:      "USD",
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, f.orderRepo.Create(order))

	w := f.get(t, "/paypal/return?tx=tx-1&cm="+guid)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, fmt.Sprintf("/checkout/completed/%d", order.ID), w.Header().Get("Location"))

	notes, err := f.orderRepo.NotesByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Contains(t, notes[0].Note, "PayPal PDT failed.")
}

func TestPDTReturnUntrustedUnknownOrderRedirectsHome(t *testing.T) {
	f := newPDTFixture(t, "FAIL\nInvalid transaction id\n")

	w := f.get(t, "/paypal/return?tx=tx-1&cm="+uuid.NewString())

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestCancelWithKnownOrderRedirectsToDetails(t *testing.T) {
	guid := uuid.NewString()
	f := newPDTFixture(t, "FAIL\n")

	order := &models.Order{
		OrderGUID:     guid,
		Total:         decimal.RequireFromString("50.00"),
		Currency:      "USD",
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, f.orderRepo.Create(order))

	w := f.get(t, "/paypal/cancel?order="+guid)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, fmt.Sprintf("/orders/details/%d", order.ID), w.Header().Get("Location"))
}

func TestCancelWithoutOrderRedirectsHome(t *testing.T) {
	f := newPDTFixture(t, "FAIL\n")

	w := f.get(t, "/paypal/cancel")

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}
