package service

import (
	"errors"
	"fmt"
	"time"

	"paygate/internal/models"
	"paygate/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReturnOutcome tells the return-confirmation handler where to send the
// browser after reconciliation.
type ReturnOutcome int

const (
	ReturnHome ReturnOutcome = iota
	ReturnCompleted
)

// OrderReconciler drives the order payment state machine from trusted gateway
// notifications. Financial validation failures and impermissible transitions
// are absorbed into audit notes and logs; only store failures come back as
// errors.
type OrderReconciler struct {
	orders *repository.OrderRepository
	log    *zap.SugaredLogger
}

func NewOrderReconciler(orders *repository.OrderRepository, log *zap.SugaredLogger) *OrderReconciler {
	return &OrderReconciler{orders: orders, log: log}
}

// Reconcile applies one asynchronous notification to the order identified by
// orderGUID. info is the full notification text and is always recorded as an
// order note before any validation, so rejected notifications stay
// inspectable.
func (s *OrderReconciler) Reconcile(orderGUID, info string, newStatus models.PaymentStatus, amount decimal.Decimal, transactionID string) error {
	order, err := s.orders.GetByGUID(orderGUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Errorw("ipn_order_not_found", "order_guid", orderGUID, "info", info)
			return nil
		}
		return fmt.Errorf("load order: %w", err)
	}

	if err := s.orders.AppendNote(order.ID, info, false); err != nil {
		return fmt.Errorf("append note: %w", err)
	}

	return s.orders.Transaction(func(r *repository.OrderRepository) error {
		o, err := r.GetByIDForUpdate(order.ID)
		if err != nil {
			return fmt.Errorf("lock order %d: %w", order.ID, err)
		}

		if newStatus == models.PaymentStatusAuthorized || newStatus == models.PaymentStatusPaid {
			if !amount.Round(2).Equal(o.Total.Round(2)) {
				errStr := fmt.Sprintf("Returned order total %s doesn't equal order total %s. Order# %d.", amount, o.Total, o.ID)
				s.log.Error(errStr)
				return r.AppendNote(o.ID, errStr, false)
			}
		}

		switch newStatus {
		case models.PaymentStatusAuthorized:
			if o.CanMarkAsAuthorized() {
				o.MarkAsAuthorized()
				return s.saveWithNote(r, o, "Order has been marked as authorized")
			}
		case models.PaymentStatusPaid:
			if o.CanMarkAsPaid() {
				o.AuthorizationTransactionID = transactionID
				o.MarkAsPaid(time.Now().UTC())
				return s.saveWithNote(r, o, "Order has been marked as paid")
			}
		case models.PaymentStatusRefunded:
			totalToRefund := amount.Abs()
			if totalToRefund.IsPositive() && totalToRefund.Round(2).Equal(o.Total.Round(2)) {
				if o.CanRefund() {
					o.Refund()
					return s.saveWithNote(r, o, "Order has been refunded")
				}
			} else if o.CanPartiallyRefund(totalToRefund) {
				o.PartiallyRefund(totalToRefund)
				return s.saveWithNote(r, o, fmt.Sprintf("Order has been partially refunded. Amount = %s", totalToRefund.StringFixed(2)))
			}
		case models.PaymentStatusVoided:
			if o.CanVoid() {
				o.Void()
				return s.saveWithNote(r, o, "Order has been voided")
			}
		}
		// Advisory target statuses carry no local action.
		return nil
	})
}

// ReconcileReturn applies a return-redirect confirmation. It additionally
// validates the amount against the total recorded when the customer was sent
// to the gateway, and reports where the browser should land.
func (s *OrderReconciler) ReconcileReturn(orderGUID, info string, newStatus models.PaymentStatus, amount decimal.Decimal, transactionID string) (*models.Order, ReturnOutcome, error) {
	order, err := s.orders.GetByGUID(orderGUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Errorw("pdt_order_not_found", "order_guid", orderGUID)
			return nil, ReturnHome, nil
		}
		return nil, ReturnHome, fmt.Errorf("load order: %w", err)
	}

	if err := s.orders.AppendNote(order.ID, info, false); err != nil {
		return nil, ReturnHome, fmt.Errorf("append note: %w", err)
	}

	outcome := ReturnCompleted
	err = s.orders.Transaction(func(r *repository.OrderRepository) error {
		o, err := r.GetByIDForUpdate(order.ID)
		if err != nil {
			return fmt.Errorf("lock order %d: %w", order.ID, err)
		}

		if o.TotalSentToGateway != nil {
			if !amount.Equal(*o.TotalSentToGateway) {
				errStr := fmt.Sprintf("Returned order total %s doesn't equal order total %s. Order# %d.", amount, o.Total, o.ID)
				s.log.Error(errStr)
				outcome = ReturnHome
				return r.AppendNote(o.ID, errStr, false)
			}
			o.TotalSentToGateway = nil
			if err := r.Update(o); err != nil {
				return err
			}
		}

		if newStatus != models.PaymentStatusPaid || !o.CanMarkAsPaid() {
			return nil
		}
		o.AuthorizationTransactionID = transactionID
		o.MarkAsPaid(time.Now().UTC())
		return s.saveWithNote(r, o, "Order has been marked as paid")
	})
	if err != nil {
		return order, ReturnHome, err
	}
	return order, outcome, nil
}

// NoteReturnFailure records a failed return confirmation against the order,
// when it resolves at all.
func (s *OrderReconciler) NoteReturnFailure(orderGUID, rawResponse string) (*models.Order, error) {
	order, err := s.orders.GetByGUID(orderGUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if err := s.orders.AppendNote(order.ID, "PayPal PDT failed. "+rawResponse, false); err != nil {
		return order, fmt.Errorf("append note: %w", err)
	}
	return order, nil
}

func (s *OrderReconciler) saveWithNote(r *repository.OrderRepository, o *models.Order, note string) error {
	if err := r.Update(o); err != nil {
		return err
	}
	s.log.Infow("order_payment_status_changed",
		"order_id", o.ID,
		"order_guid", o.OrderGUID,
		"payment_status", o.PaymentStatus,
	)
	return r.AppendNote(o.ID, note, false)
}
