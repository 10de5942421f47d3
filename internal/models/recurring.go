package models

import (
	"time"

	"gorm.io/gorm"
)

// RecurringPayment is a subscription series rooted at the order that opened it.
type RecurringPayment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	InitialOrderID  uint           `gorm:"not null;index" json:"initial_order_id"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	FailedAttempts  int            `gorm:"not null;default:0" json:"failed_attempts"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	InitialOrder Order `gorm:"foreignKey:InitialOrderID" json:"-"`
}

func (RecurringPayment) TableName() string { return "recurring_payments" }

// RecurringPaymentHistory records one processed cycle of a series.
type RecurringPaymentHistory struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	RecurringPaymentID uint      `gorm:"not null;index" json:"recurring_payment_id"`
	OrderID            uint      `gorm:"not null" json:"order_id"`
	CreatedAt          time.Time `json:"created_at"`

	RecurringPayment RecurringPayment `gorm:"foreignKey:RecurringPaymentID" json:"-"`
}

func (RecurringPaymentHistory) TableName() string { return "recurring_payment_history" }

// PaymentResult carries the outcome of one recurring cycle into the series
// advancement path. Exactly one of the transaction ids is set depending on
// whether the gateway authorized or captured.
type PaymentResult struct {
	NewPaymentStatus           PaymentStatus
	AuthorizationTransactionID string
	CaptureTransactionID       string
	Failed                     bool
	Errors                     []string
}
