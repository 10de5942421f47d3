package models

// PaymentStatus is the internal payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusAuthorized        PaymentStatus = "AUTHORIZED"
	PaymentStatusPaid              PaymentStatus = "PAID"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusVoided            PaymentStatus = "VOIDED"
)

func (s PaymentStatus) String() string { return string(s) }

// TxnType classifies an inbound gateway notification. Anything the gateway
// sends that we don't recognize is treated as a one-off order payment.
type TxnType int

const (
	TxnTypePayment TxnType = iota
	TxnTypeRecurringPayment
	TxnTypeRecurringPaymentFailed
)

func ParseTxnType(s string) TxnType {
	switch s {
	case "recurring_payment":
		return TxnTypeRecurringPayment
	case "recurring_payment_failed":
		return TxnTypeRecurringPaymentFailed
	default:
		return TxnTypePayment
	}
}

func (t TxnType) String() string {
	switch t {
	case TxnTypeRecurringPayment:
		return "recurring_payment"
	case TxnTypeRecurringPaymentFailed:
		return "recurring_payment_failed"
	default:
		return "payment"
	}
}
