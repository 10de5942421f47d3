package service

import (
	"testing"

	"paygate/internal/logger"
	"paygate/internal/models"
	"paygate/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	calls []processedCall
	err   error
}

type processedCall struct {
	recurringPaymentID uint
	result             models.PaymentResult
}

func (f *fakeProcessor) ProcessNextPayment(rp *models.RecurringPayment, result models.PaymentResult) error {
	f.calls = append(f.calls, processedCall{recurringPaymentID: rp.ID, result: result})
	return f.err
}

func setupRecurring(t *testing.T) (*repository.OrderRepository, *repository.RecurringRepository, *models.Order, *models.RecurringPayment) {
	t.Helper()
	db := newTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	recurringRepo := repository.NewRecurringRepository(db)
	order := createOrder(t, orderRepo, models.PaymentStatusPaid, "25.00")
	rp := &models.RecurringPayment{InitialOrderID: order.ID, IsActive: true}
	require.NoError(t, recurringRepo.Create(rp))
	return orderRepo, recurringRepo, order, rp
}

func TestRecurringFirstNotificationOnlyRecordsHistory(t *testing.T) {
	orderRepo, recurringRepo, order, rp := setupRecurring(t)
	proc := &fakeProcessor{}
	rec := NewRecurringReconciler(orderRepo, recurringRepo, proc, logger.Nop())

	require.NoError(t, rec.Reconcile(order.OrderGUID, models.PaymentStatusPaid, "TXN-1", "info"))

	history, err := recurringRepo.History(rp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, order.ID, history[0].OrderID)
	require.Empty(t, proc.calls)
}

func TestRecurringSubsequentPaidNotificationAdvances(t *testing.T) {
	orderRepo, recurringRepo, order, rp := setupRecurring(t)
	require.NoError(t, recurringRepo.AppendHistory(&models.RecurringPaymentHistory{
		RecurringPaymentID: rp.ID,
		OrderID:            order.ID,
	}))
	proc := &fakeProcessor{}
	rec := NewRecurringReconciler(orderRepo, recurringRepo, proc, logger.Nop())

	require.NoError(t, rec.Reconcile(order.OrderGUID, models.PaymentStatusPaid, "TXN-2", "info"))

	require.Len(t, proc.calls, 1)
	result := proc.calls[0].result
	require.Equal(t, models.PaymentStatusPaid, result.NewPaymentStatus)
	require.Equal(t, "TXN-2", result.CaptureTransactionID)
	require.Empty(t, result.AuthorizationTransactionID)
	require.False(t, result.Failed)
}

func TestRecurringSubsequentAuthorizedNotificationUsesAuthorizationID(t *testing.T) {
	orderRepo, recurringRepo, order, rp := setupRecurring(t)
	require.NoError(t, recurringRepo.AppendHistory(&models.RecurringPaymentHistory{
		RecurringPaymentID: rp.ID,
		OrderID:            order.ID,
	}))
	proc := &fakeProcessor{}
	rec := NewRecurringReconciler(orderRepo, recurringRepo, proc, logger.Nop())

	require.NoError(t, rec.Reconcile(order.OrderGUID, models.PaymentStatusAuthorized, "TXN-A", "info"))

	require.Len(t, proc.calls, 1)
	result := proc.calls[0].result
	require.Equal(t, "TXN-A", result.AuthorizationTransactionID)
	require.Empty(t, result.CaptureTransactionID)
}

func TestRecurringVoidedNotificationFailsSeries(t *testing.T) {
	orderRepo, recurringRepo, order, _ := setupRecurring(t)
	proc := &fakeProcessor{}
	rec := NewRecurringReconciler(orderRepo, recurringRepo, proc, logger.Nop())

	require.NoError(t, rec.Reconcile(order.OrderGUID, models.PaymentStatusVoided, "TXN-V", "info"))

	require.Len(t, proc.calls, 1)
	require.True(t, proc.calls[0].result.Failed)
	require.NotEmpty(t, proc.calls[0].result.Errors)
}

func TestRecurringUnknownOrderIsNoOp(t *testing.T) {
	orderRepo, recurringRepo, _, _ := setupRecurring(t)
	proc := &fakeProcessor{}
	rec := NewRecurringReconciler(orderRepo, recurringRepo, proc, logger.Nop())

	require.NoError(t, rec.Reconcile(uuid.NewString(), models.PaymentStatusPaid, "TXN-1", "info"))
	require.NoError(t, rec.Reconcile("not-a-guid", models.PaymentStatusPaid, "TXN-1", "info"))
	require.Empty(t, proc.calls)
}

func TestRecurringReconcileFailure(t *testing.T) {
	orderRepo, recurringRepo, order, rp := setupRecurring(t)
	proc := &fakeProcessor{}
	rec := NewRecurringReconciler(orderRepo, recurringRepo, proc, logger.Nop())

	require.NoError(t, rec.ReconcileFailure(order.OrderGUID, "recurring_payment_failed"))

	require.Len(t, proc.calls, 1)
	require.Equal(t, rp.ID, proc.calls[0].recurringPaymentID)
	require.True(t, proc.calls[0].result.Failed)
	require.Equal(t, []string{"recurring_payment_failed"}, proc.calls[0].result.Errors)
}

func TestRecurringAdvancerRecordsCycle(t *testing.T) {
	_, recurringRepo, _, rp := setupRecurring(t)
	rp.FailedAttempts = 1
	require.NoError(t, recurringRepo.Update(rp))
	adv := NewRecurringAdvancer(recurringRepo, 3, logger.Nop())

	require.NoError(t, adv.ProcessNextPayment(rp, models.PaymentResult{
		NewPaymentStatus:     models.PaymentStatusPaid,
		CaptureTransactionID: "TXN-2",
	}))

	history, err := recurringRepo.History(rp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	series, err := recurringRepo.FindByInitialOrder(rp.InitialOrderID)
	require.NoError(t, err)
	require.Equal(t, 0, series[0].FailedAttempts)
	require.True(t, series[0].IsActive)
}

func TestRecurringAdvancerDeactivatesAfterRetryBudget(t *testing.T) {
	_, recurringRepo, _, rp := setupRecurring(t)
	adv := NewRecurringAdvancer(recurringRepo, 2, logger.Nop())
	failed := models.PaymentResult{Failed: true, Errors: []string{"recurring payment is voided"}}

	require.NoError(t, adv.ProcessNextPayment(rp, failed))
	series, err := recurringRepo.FindByInitialOrder(rp.InitialOrderID)
	require.NoError(t, err)
	require.True(t, series[0].IsActive)
	require.Equal(t, 1, series[0].FailedAttempts)

	require.NoError(t, adv.ProcessNextPayment(&series[0], failed))
	series, err = recurringRepo.FindByInitialOrder(rp.InitialOrderID)
	require.NoError(t, err)
	require.False(t, series[0].IsActive)
	require.Equal(t, 2, series[0].FailedAttempts)

	// A deactivated series stops accepting outcomes.
	require.NoError(t, adv.ProcessNextPayment(&series[0], failed))
	series, err = recurringRepo.FindByInitialOrder(rp.InitialOrderID)
	require.NoError(t, err)
	require.Equal(t, 2, series[0].FailedAttempts)
}
