package paypal

import (
	"strings"

	"paygate/internal/models"
)

// GetPaymentStatus maps the gateway's payment_status / pending_reason
// vocabulary to the internal payment status. Total: unrecognized input maps
// to PENDING.
func GetPaymentStatus(paymentStatus, pendingReason string) models.PaymentStatus {
	switch strings.ToLower(paymentStatus) {
	case "pending":
		if strings.EqualFold(pendingReason, "authorization") {
			return models.PaymentStatusAuthorized
		}
		return models.PaymentStatusPending
	case "processed", "completed":
		return models.PaymentStatusPaid
	case "denied", "expired", "failed", "voided":
		return models.PaymentStatusVoided
	case "refunded":
		return models.PaymentStatusRefunded
	case "partially_refunded":
		return models.PaymentStatusPartiallyRefunded
	default:
		return models.PaymentStatusPending
	}
}
