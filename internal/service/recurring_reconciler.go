package service

import (
	"errors"
	"fmt"

	"paygate/internal/models"
	"paygate/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecurringProcessor advances or fails the next scheduled payment of a
// series. It owns the retry/cancellation policy; the reconciler only reports
// outcomes to it.
type RecurringProcessor interface {
	ProcessNextPayment(rp *models.RecurringPayment, result models.PaymentResult) error
}

// RecurringReconciler applies recurring-series notifications. The series is
// located through the order that opened it.
type RecurringReconciler struct {
	orders    *repository.OrderRepository
	recurring *repository.RecurringRepository
	processor RecurringProcessor
	log       *zap.SugaredLogger
}

func NewRecurringReconciler(orders *repository.OrderRepository, recurring *repository.RecurringRepository, processor RecurringProcessor, log *zap.SugaredLogger) *RecurringReconciler {
	return &RecurringReconciler{orders: orders, recurring: recurring, processor: processor, log: log}
}

// Reconcile records one recurring cycle. A series with no history yet is
// seeing the payment that was already processed at checkout, so only a
// history entry is written; later cycles go through the advancement path.
func (s *RecurringReconciler) Reconcile(initialOrderGUID string, newStatus models.PaymentStatus, transactionID, info string) error {
	order, err := s.orders.GetByGUID(initialOrderGUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Errorw("ipn_recurring_order_not_found", "order_guid", initialOrderGUID, "info", info)
			return nil
		}
		return fmt.Errorf("load order: %w", err)
	}

	series, err := s.recurring.FindByInitialOrder(order.ID)
	if err != nil {
		return fmt.Errorf("load recurring series: %w", err)
	}

	for i := range series {
		rp := &series[i]
		switch newStatus {
		case models.PaymentStatusAuthorized, models.PaymentStatusPaid:
			hasHistory, err := s.recurring.HasHistory(rp.ID)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if !hasHistory {
				if err := s.recurring.AppendHistory(&models.RecurringPaymentHistory{
					RecurringPaymentID: rp.ID,
					OrderID:            order.ID,
				}); err != nil {
					return fmt.Errorf("append history: %w", err)
				}
				continue
			}
			result := models.PaymentResult{NewPaymentStatus: newStatus}
			if newStatus == models.PaymentStatusAuthorized {
				result.AuthorizationTransactionID = transactionID
			} else {
				result.CaptureTransactionID = transactionID
			}
			if err := s.processor.ProcessNextPayment(rp, result); err != nil {
				return fmt.Errorf("process next payment: %w", err)
			}
		case models.PaymentStatusVoided:
			result := models.PaymentResult{
				Failed: true,
				Errors: []string{"recurring payment is voided"},
			}
			if err := s.processor.ProcessNextPayment(rp, result); err != nil {
				return fmt.Errorf("process failed payment: %w", err)
			}
		}
	}

	s.log.Infow("ipn_recurring_processed", "order_guid", initialOrderGUID, "info", info)
	return nil
}

// ReconcileFailure routes an explicit payment-failure notification into the
// advancement path for the first series rooted at the order.
func (s *RecurringReconciler) ReconcileFailure(initialOrderGUID, reason string) error {
	order, err := s.orders.GetByGUID(initialOrderGUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Errorw("ipn_recurring_order_not_found", "order_guid", initialOrderGUID, "reason", reason)
			return nil
		}
		return fmt.Errorf("load order: %w", err)
	}

	series, err := s.recurring.FindByInitialOrder(order.ID)
	if err != nil {
		return fmt.Errorf("load recurring series: %w", err)
	}
	if len(series) == 0 {
		return nil
	}

	result := models.PaymentResult{
		Failed: true,
		Errors: []string{reason},
	}
	if err := s.processor.ProcessNextPayment(&series[0], result); err != nil {
		return fmt.Errorf("process failed payment: %w", err)
	}
	return nil
}
