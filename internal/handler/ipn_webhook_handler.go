package handler

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"paygate/internal/models"
	"paygate/internal/service"
	"paygate/pkg/paypal"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type IPNWebhookHandler struct {
	verifier  *paypal.Verifier
	orders    *service.OrderReconciler
	recurring *service.RecurringReconciler
	log       *zap.SugaredLogger
}

func NewIPNWebhookHandler(verifier *paypal.Verifier, orders *service.OrderReconciler, recurring *service.RecurringReconciler, log *zap.SugaredLogger) *IPNWebhookHandler {
	return &IPNWebhookHandler{verifier: verifier, orders: orders, recurring: recurring, log: log}
}

// Handle processes one asynchronous gateway notification. The gateway retries
// on anything but success, so every outcome except a store failure is
// acknowledged with an empty 200; the real result lives in order notes and
// logs.
func (h *IPNWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Errorw("ipn_read_body_failed", "error", err)
		c.String(http.StatusOK, "")
		return
	}
	rawBody := string(body)

	trusted, fields := h.verifier.VerifyIPN(c.Request.Context(), rawBody)
	if !trusted {
		h.log.Errorw("ipn_verification_failed", "body", rawBody)
		c.String(http.StatusOK, "")
		return
	}

	amount := decimal.Zero
	if v, err := decimal.NewFromString(fields["mc_gross"]); err == nil {
		amount = v
	}
	newStatus := paypal.GetPaymentStatus(fields["payment_status"], fields["pending_reason"])
	info := ipnInfo(fields, newStatus)

	var rerr error
	switch models.ParseTxnType(fields["txn_type"]) {
	case models.TxnTypeRecurringPayment:
		rerr = h.recurring.Reconcile(fields["rp_invoice_id"], newStatus, fields["txn_id"], info)
	case models.TxnTypeRecurringPaymentFailed:
		rerr = h.recurring.ReconcileFailure(fields["rp_invoice_id"], "recurring_payment_failed")
	default:
		rerr = h.orders.Reconcile(fields["custom"], info, newStatus, amount, fields["txn_id"])
	}
	if rerr != nil {
		h.log.Errorw("ipn_store_failure", "error", rerr)
		c.String(http.StatusInternalServerError, "")
		return
	}
	c.String(http.StatusOK, "")
}

// ipnInfo renders the notification for the audit note, keys sorted so
// identical notifications produce identical notes.
func ipnInfo(fields map[string]string, newStatus models.PaymentStatus) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("PayPal IPN:\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, fields[k])
	}
	fmt.Fprintf(&sb, "New payment status: %s\n", newStatus)
	return sb.String()
}
