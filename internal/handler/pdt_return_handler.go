package handler

import (
	"fmt"
	"net/http"
	"strings"

	"paygate/config"
	"paygate/internal/models"
	"paygate/internal/repository"
	"paygate/internal/service"
	"paygate/pkg/paypal"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PDTReturnHandler serves the browser redirect back from the gateway. Unlike
// the IPN endpoint it faces a human, so every path ends in a redirect to a
// sensible page, never an error response.
type PDTReturnHandler struct {
	verifier  *paypal.Verifier
	orders    *service.OrderReconciler
	orderRepo *repository.OrderRepository
	cfg       *config.PayPalConfig
	log       *zap.SugaredLogger
}

func NewPDTReturnHandler(verifier *paypal.Verifier, orders *service.OrderReconciler, orderRepo *repository.OrderRepository, cfg *config.PayPalConfig, log *zap.SugaredLogger) *PDTReturnHandler {
	return &PDTReturnHandler{verifier: verifier, orders: orders, orderRepo: orderRepo, cfg: cfg, log: log}
}

func (h *PDTReturnHandler) Handle(c *gin.Context) {
	tx := c.Query("tx")
	trusted, fields, rawResponse := h.verifier.GetPDTDetails(c.Request.Context(), tx)

	if !trusted {
		orderGUID := fields["custom"]
		if orderGUID == "" {
			orderGUID = c.Query("cm")
		}
		order, err := h.orders.NoteReturnFailure(orderGUID, rawResponse)
		if err != nil {
			h.log.Errorw("pdt_note_failure", "error", err)
		}
		if order == nil {
			c.Redirect(http.StatusFound, h.cfg.HomeURL)
			return
		}
		c.Redirect(http.StatusFound, h.completedURL(order.ID))
		return
	}

	amount := decimal.Zero
	if v, err := decimal.NewFromString(fields["mc_gross"]); err == nil {
		amount = v
	} else {
		h.log.Errorw("pdt_mc_gross_parse_failed", "mc_gross", fields["mc_gross"], "error", err)
	}
	newStatus := paypal.GetPaymentStatus(fields["payment_status"], "")

	order, outcome, err := h.orders.ReconcileReturn(fields["custom"], pdtInfo(fields, amount, newStatus), newStatus, amount, fields["txn_id"])
	if err != nil {
		h.log.Errorw("pdt_store_failure", "error", err)
		c.Redirect(http.StatusFound, h.cfg.HomeURL)
		return
	}
	if order == nil || outcome == service.ReturnHome {
		c.Redirect(http.StatusFound, h.cfg.HomeURL)
		return
	}
	c.Redirect(http.StatusFound, h.completedURL(order.ID))
}

// Cancel lands customers who abandoned checkout at the gateway. With a known
// order it goes to the order details page, otherwise home.
func (h *PDTReturnHandler) Cancel(c *gin.Context) {
	if orderGUID := c.Query("order"); orderGUID != "" {
		if order, err := h.orderRepo.GetByGUID(orderGUID); err == nil {
			c.Redirect(http.StatusFound, fmt.Sprintf("%s%d", h.cfg.OrderDetailsURL, order.ID))
			return
		}
	}
	c.Redirect(http.StatusFound, h.cfg.HomeURL)
}

func (h *PDTReturnHandler) completedURL(orderID uint) string {
	return fmt.Sprintf("%s%d", h.cfg.CheckoutCompletedURL, orderID)
}

func pdtInfo(fields map[string]string, amount decimal.Decimal, newStatus models.PaymentStatus) string {
	var sb strings.Builder
	sb.WriteString("PayPal PDT:\n")
	fmt.Fprintf(&sb, "mc_gross: %s\n", amount)
	fmt.Fprintf(&sb, "Payer status: %s\n", fields["payer_status"])
	fmt.Fprintf(&sb, "Payment status: %s\n", fields["payment_status"])
	fmt.Fprintf(&sb, "Pending reason: %s\n", fields["pending_reason"])
	fmt.Fprintf(&sb, "mc_currency: %s\n", fields["mc_currency"])
	fmt.Fprintf(&sb, "txn_id: %s\n", fields["txn_id"])
	fmt.Fprintf(&sb, "payment_type: %s\n", fields["payment_type"])
	fmt.Fprintf(&sb, "payer_id: %s\n", fields["payer_id"])
	fmt.Fprintf(&sb, "receiver_id: %s\n", fields["receiver_id"])
	fmt.Fprintf(&sb, "invoice: %s\n", fields["invoice"])
	fmt.Fprintf(&sb, "payment_fee: %s\n", fields["payment_fee"])
	fmt.Fprintf(&sb, "New payment status: %s\n", newStatus)
	return sb.String()
}
