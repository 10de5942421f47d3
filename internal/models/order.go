package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the checkout record the gateway notifications reconcile against.
// OrderGUID is the opaque correlation key exposed to the gateway; the numeric
// primary key never leaves the system.
type Order struct {
	ID                         uint             `gorm:"primaryKey" json:"id"`
	OrderGUID                  string           `gorm:"size:36;uniqueIndex;not null" json:"order_guid"`
	Total                      decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"total"`
	Currency                   string           `gorm:"size:3;default:'USD'" json:"currency"`
	PaymentStatus              PaymentStatus    `gorm:"size:20;not null;index" json:"payment_status"`
	AuthorizationTransactionID string           `gorm:"size:64" json:"authorization_transaction_id"`
	CaptureTransactionID       string           `gorm:"size:64" json:"capture_transaction_id"`
	RefundedAmount             decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"refunded_amount"`
	TotalSentToGateway         *decimal.Decimal `gorm:"type:decimal(12,2)" json:"-"`
	PaidAt                     *time.Time       `json:"paid_at"`
	CreatedAt                  time.Time        `json:"created_at"`
	UpdatedAt                  time.Time        `json:"updated_at"`
	DeletedAt                  gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (Order) TableName() string { return "orders" }

// RemainingRefundable is the amount that can still be refunded.
func (o *Order) RemainingRefundable() decimal.Decimal {
	return o.Total.Sub(o.RefundedAmount)
}

func (o *Order) CanMarkAsAuthorized() bool {
	return o.PaymentStatus == PaymentStatusPending
}

func (o *Order) CanMarkAsPaid() bool {
	switch o.PaymentStatus {
	case PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusVoided:
		return false
	}
	return true
}

// CanRefund reports whether a full refund is currently permitted.
func (o *Order) CanRefund() bool {
	return o.Total.IsPositive() && o.PaymentStatus == PaymentStatusPaid
}

// CanPartiallyRefund reports whether amount can be refunded on top of what
// has already been refunded.
func (o *Order) CanPartiallyRefund(amount decimal.Decimal) bool {
	if !o.Total.IsPositive() || !amount.IsPositive() {
		return false
	}
	if o.PaymentStatus != PaymentStatusPaid && o.PaymentStatus != PaymentStatusPartiallyRefunded {
		return false
	}
	return amount.LessThanOrEqual(o.RemainingRefundable())
}

func (o *Order) CanVoid() bool {
	return o.Total.IsPositive() && o.PaymentStatus == PaymentStatusAuthorized
}

// MarkAsAuthorized transitions the order to AUTHORIZED. Callers must check
// CanMarkAsAuthorized under the same row lock first.
func (o *Order) MarkAsAuthorized() {
	o.PaymentStatus = PaymentStatusAuthorized
}

func (o *Order) MarkAsPaid(now time.Time) {
	o.PaymentStatus = PaymentStatusPaid
	o.PaidAt = &now
}

func (o *Order) Refund() {
	o.RefundedAmount = o.Total
	o.PaymentStatus = PaymentStatusRefunded
}

func (o *Order) PartiallyRefund(amount decimal.Decimal) {
	o.RefundedAmount = o.RefundedAmount.Add(amount)
	if o.RefundedAmount.GreaterThanOrEqual(o.Total) {
		o.PaymentStatus = PaymentStatusRefunded
	} else {
		o.PaymentStatus = PaymentStatusPartiallyRefunded
	}
}

func (o *Order) Void() {
	o.PaymentStatus = PaymentStatusVoided
}

// OrderNote is the append-only audit trail attached to an order. Every
// notification, validation failure and state change gets one.
type OrderNote struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OrderID           uint      `gorm:"not null;index" json:"order_id"`
	Note              string    `gorm:"type:text;not null" json:"note"`
	DisplayToCustomer bool      `gorm:"not null;default:false" json:"display_to_customer"`
	CreatedAt         time.Time `json:"created_at"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (OrderNote) TableName() string { return "order_notes" }
