package service

import (
	"fmt"
	"strings"

	"paygate/internal/models"
	"paygate/internal/repository"

	"go.uber.org/zap"
)

// RecurringAdvancer is the default RecurringProcessor: successful cycles
// append history and reset the failure counter, failures burn down a retry
// budget and deactivate the series when it is spent.
type RecurringAdvancer struct {
	recurring   *repository.RecurringRepository
	maxFailures int
	log         *zap.SugaredLogger
}

func NewRecurringAdvancer(recurring *repository.RecurringRepository, maxFailures int, log *zap.SugaredLogger) *RecurringAdvancer {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &RecurringAdvancer{recurring: recurring, maxFailures: maxFailures, log: log}
}

func (s *RecurringAdvancer) ProcessNextPayment(rp *models.RecurringPayment, result models.PaymentResult) error {
	if !rp.IsActive {
		s.log.Warnw("recurring_series_inactive", "recurring_payment_id", rp.ID)
		return nil
	}

	if result.Failed {
		rp.FailedAttempts++
		if rp.FailedAttempts >= s.maxFailures {
			rp.IsActive = false
			s.log.Errorw("recurring_series_deactivated",
				"recurring_payment_id", rp.ID,
				"failed_attempts", rp.FailedAttempts,
				"errors", strings.Join(result.Errors, "; "),
			)
		} else {
			s.log.Warnw("recurring_payment_failed",
				"recurring_payment_id", rp.ID,
				"failed_attempts", rp.FailedAttempts,
				"errors", strings.Join(result.Errors, "; "),
			)
		}
		if err := s.recurring.Update(rp); err != nil {
			return fmt.Errorf("update series: %w", err)
		}
		return nil
	}

	if err := s.recurring.AppendHistory(&models.RecurringPaymentHistory{
		RecurringPaymentID: rp.ID,
		OrderID:            rp.InitialOrderID,
	}); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	s.log.Infow("recurring_cycle_recorded",
		"recurring_payment_id", rp.ID,
		"payment_status", result.NewPaymentStatus,
		"authorization_transaction_id", result.AuthorizationTransactionID,
		"capture_transaction_id", result.CaptureTransactionID,
	)
	if rp.FailedAttempts != 0 {
		rp.FailedAttempts = 0
		if err := s.recurring.Update(rp); err != nil {
			return fmt.Errorf("update series: %w", err)
		}
	}
	return nil
}
